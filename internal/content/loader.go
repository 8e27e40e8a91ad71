// Package content loads knowledge-base documents from a content store.
package content

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/motomarket/motorag/internal/domain"
)

const defaultCategory = "general"

// Loader turns content store files into documents.
type Loader struct {
	source Source
}

func NewLoader(source Source) *Loader {
	return &Loader{source: source}
}

// Load reads every document in the store. Files that cannot be read or
// parsed are logged and skipped so one bad file does not block indexing.
func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	keys, err := l.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(keys))
	for _, key := range keys {
		raw, err := l.source.Read(ctx, key)
		if err != nil {
			log.Printf("content: skipping %s: %v", key, err)
			continue
		}
		doc, err := ParseDocument(key, raw)
		if err != nil {
			log.Printf("content: skipping %s: %v", key, err)
			continue
		}
		docs = append(docs, doc)
	}

	log.Printf("content: loaded %d documents", len(docs))
	return docs, nil
}

// ParseDocument builds a document from a store key and its raw bytes.
// The ID is the key without its extension.
func ParseDocument(key string, raw []byte) (domain.Document, error) {
	fm, body, err := splitFrontMatter(raw)
	if err != nil {
		return domain.Document{}, err
	}

	id := strings.TrimSuffix(key, path.Ext(key))
	category := strings.TrimSpace(fm.Category)
	if category == "" {
		category = categoryFromKey(key)
	}

	tags := []string(fm.Tags)
	if tags == nil {
		tags = []string{}
	}

	return domain.Document{
		ID:          id,
		Filename:    path.Base(key),
		Category:    category,
		Tags:        tags,
		LastUpdated: fm.lastUpdated(),
		Content:     body,
	}, nil
}

func categoryFromKey(key string) string {
	if dir := path.Dir(key); dir != "." && dir != "" {
		return strings.SplitN(dir, "/", 2)[0]
	}
	return defaultCategory
}
