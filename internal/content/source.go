package content

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/motomarket/motorag/internal/storage"
)

// Source is a content store holding knowledge-base documents.
// Keys are slash separated and relative to the store root.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, key string) ([]byte, error)
}

var documentExtensions = map[string]bool{
	".md":  true,
	".mdx": true,
}

func isDocumentKey(key string) bool {
	return documentExtensions[strings.ToLower(path.Ext(key))]
}

// DirSource reads documents from a local directory tree.
type DirSource struct {
	root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

func (s *DirSource) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if isDocumentKey(key) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk content dir: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *DirSource) Read(ctx context.Context, key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
}

// ObjectStore is the subset of the S3 client used for content.
type ObjectStore interface {
	ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// S3Source reads documents stored under a bucket prefix.
type S3Source struct {
	store  ObjectStore
	prefix string
}

func NewS3Source(store ObjectStore, prefix string) *S3Source {
	prefix = strings.TrimPrefix(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Source{store: store, prefix: prefix}
}

func (s *S3Source) List(ctx context.Context) ([]string, error) {
	objects, err := s.store.ListObjects(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		key := strings.TrimPrefix(obj.Key, s.prefix)
		if key == "" || !isDocumentKey(key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *S3Source) Read(ctx context.Context, key string) ([]byte, error) {
	return s.store.GetObject(ctx, s.prefix+key)
}
