package service

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/motomarket/motorag/internal/domain"
)

// ChunkConfig controls how documents are cut into retrieval passages.
type ChunkConfig struct {
	MaxChars        int
	MinSectionChars int
	Overlap         int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars:        1500,
		MinSectionChars: 20,
		Overlap:         200,
	}
}

var (
	headingPattern   = regexp.MustCompile(`^(#{1,3})\s+(.+?)\s*#*\s*$`)
	paragraphPattern = regexp.MustCompile(`\n\s*\n+`)
	slugInvalid      = regexp.MustCompile(`[^a-z0-9\p{Han}\p{Hiragana}\p{Katakana}\p{Hangul}:]+`)
	slugDashes       = regexp.MustCompile(`-{2,}`)
)

type section struct {
	heading string
	line    string
	body    string
}

// Chunker splits documents into heading-bounded, size-bounded chunks.
type Chunker struct {
	cfg ChunkConfig
}

func NewChunker(cfg ChunkConfig) *Chunker {
	def := DefaultChunkConfig()
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = def.MaxChars
	}
	if cfg.MinSectionChars <= 0 {
		cfg.MinSectionChars = def.MinSectionChars
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxChars {
		cfg.Overlap = def.Overlap
	}
	return &Chunker{cfg: cfg}
}

// ChunkDocuments chunks every document in order.
func (c *Chunker) ChunkDocuments(docs []domain.Document) []domain.Chunk {
	var out []domain.Chunk
	for _, doc := range docs {
		out = append(out, c.ChunkDocument(doc)...)
	}
	return out
}

// ChunkDocument returns the chunks for one document. Sections whose body is
// shorter than MinSectionChars are dropped.
func (c *Chunker) ChunkDocument(doc domain.Document) []domain.Chunk {
	body := strings.TrimSpace(strings.ReplaceAll(doc.Content, "\r\n", "\n"))
	if body == "" {
		return nil
	}

	seen := make(map[string]int)
	chunks := make([]domain.Chunk, 0, 4)
	for _, sec := range splitSections(body, documentTitle(doc)) {
		if runeLen(sec.body) < c.cfg.MinSectionChars {
			continue
		}

		parts := []string{sec.body}
		if runeLen(sec.body) > c.cfg.MaxChars {
			parts = c.splitParagraphs(sec.body)
		}

		for i, part := range parts {
			var b strings.Builder
			if sec.line != "" {
				b.WriteString(sec.line)
				b.WriteString("\n\n")
			}
			if i > 0 && c.cfg.Overlap > 0 {
				b.WriteString(overlapPrefix(parts[i-1], c.cfg.Overlap))
			}
			b.WriteString(part)

			idSource := doc.ID + "::" + sec.heading
			if len(parts) > 1 {
				idSource = fmt.Sprintf("%s::%d", idSource, i+1)
			}

			chunks = append(chunks, domain.Chunk{
				ID:       uniqueID(seen, Slugify(idSource)),
				Content:  b.String(),
				Source:   doc.ID,
				Section:  sec.heading,
				Category: doc.Category,
				Tags:     append([]string(nil), doc.Tags...),
			})
		}
	}
	return chunks
}

// splitSections cuts the body at level 1-3 headings. Text before the first
// heading is kept under the document title without a heading line.
func splitSections(body, title string) []section {
	var sections []section
	cur := section{heading: title}
	var lines []string

	flush := func() {
		cur.body = strings.TrimSpace(strings.Join(lines, "\n"))
		if cur.body != "" || cur.line != "" {
			sections = append(sections, cur)
		}
		lines = lines[:0]
	}

	for _, line := range strings.Split(body, "\n") {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			cur = section{heading: strings.TrimSpace(m[2]), line: strings.TrimSpace(line)}
			continue
		}
		lines = append(lines, line)
	}
	flush()
	return sections
}

// splitParagraphs packs paragraphs into parts of at most MaxChars runes.
// Parts are joined with a blank line, so joining them again with "\n\n"
// gives back the section with paragraph breaks normalised.
func (c *Chunker) splitParagraphs(body string) []string {
	var parts []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, para := range paragraphPattern.Split(body, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for _, piece := range splitLong(para, c.cfg.MaxChars) {
			n := runeLen(piece)
			if curLen > 0 && curLen+2+n > c.cfg.MaxChars {
				flush()
			}
			if curLen > 0 {
				cur.WriteString("\n\n")
				curLen += 2
			}
			cur.WriteString(piece)
			curLen += n
		}
	}
	flush()
	return parts
}

// splitLong cuts a single oversized paragraph at the last whitespace
// inside each window.
func splitLong(text string, max int) []string {
	runes := []rune(text)
	if len(runes) <= max {
		return []string{text}
	}

	var out []string
	start := 0
	for start < len(runes) {
		end := start + max
		if end >= len(runes) {
			out = append(out, strings.TrimSpace(string(runes[start:])))
			break
		}
		cut := end
		for i := end; i > start+max/2; i-- {
			if unicode.IsSpace(runes[i-1]) {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimSpace(string(runes[start:cut])))
		start = cut
	}
	return out
}

func overlapPrefix(prev string, overlap int) string {
	return tailRunes(prev, overlap) + "\n\n"
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func runeLen(s string) int {
	return len([]rune(s))
}

func documentTitle(doc domain.Document) string {
	if doc.Filename != "" {
		return strings.TrimSuffix(doc.Filename, path.Ext(doc.Filename))
	}
	return path.Base(doc.ID)
}

// Slugify lower-cases s and replaces runs of unsafe characters with a dash.
func Slugify(s string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(s), "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func uniqueID(seen map[string]int, id string) string {
	seen[id]++
	if n := seen[id]; n > 1 {
		return fmt.Sprintf("%s-%d", id, n)
	}
	return id
}
