package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(id, content string) domain.Document {
	return domain.Document{
		ID:       id,
		Filename: id[strings.LastIndex(id, "/")+1:] + ".md",
		Category: "coe",
		Tags:     []string{"bidding"},
		Content:  content,
	}
}

func TestChunkDocument_SplitsOnHeadings(t *testing.T) {
	doc := testDocument("regulations/coe", "# COE Bidding\n\nBidding opens twice a month and the quota is fixed.\n\n## Category D\n\nCategory D covers all motorcycles sold here.\n\n#### Not a split point\n\nStill category D text.")

	chunks := NewChunker(DefaultChunkConfig()).ChunkDocument(doc)

	require.Len(t, chunks, 2)
	assert.Equal(t, "regulations-coe::coe-bidding", chunks[0].ID)
	assert.Equal(t, "COE Bidding", chunks[0].Section)
	assert.Equal(t, "# COE Bidding\n\nBidding opens twice a month and the quota is fixed.", chunks[0].Content)
	assert.Equal(t, "regulations/coe", chunks[0].Source)
	assert.Equal(t, "coe", chunks[0].Category)
	assert.Equal(t, []string{"bidding"}, chunks[0].Tags)

	assert.Equal(t, "regulations-coe::category-d", chunks[1].ID)
	assert.Contains(t, chunks[1].Content, "#### Not a split point")
	assert.Contains(t, chunks[1].Content, "Still category D text.")
}

func TestChunkDocument_DropsShortSections(t *testing.T) {
	doc := testDocument("faq", "# Tiny\n\nToo short.\n\n# Real\n\nThis section has enough text to keep.")

	chunks := NewChunker(DefaultChunkConfig()).ChunkDocument(doc)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Real", chunks[0].Section)
	for _, c := range chunks {
		assert.NotEmpty(t, c.Content)
	}
}

func TestChunkDocument_NoHeadings(t *testing.T) {
	doc := testDocument("guides/insurance", "Third party insurance is mandatory for every motorcycle on the road.")

	chunks := NewChunker(DefaultChunkConfig()).ChunkDocument(doc)

	require.Len(t, chunks, 1)
	assert.Equal(t, "insurance", chunks[0].Section)
	assert.Equal(t, doc.Content, chunks[0].Content)
	assert.Equal(t, "guides-insurance::insurance", chunks[0].ID)
}

func TestChunkDocument_EmptyContent(t *testing.T) {
	assert.Empty(t, NewChunker(DefaultChunkConfig()).ChunkDocument(testDocument("empty", "  \n\n ")))
}

func TestChunkDocument_LongSectionReconstructs(t *testing.T) {
	var paras []string
	for i := 0; i < 12; i++ {
		para := fmt.Sprintf("Paragraph %d. %s", i, strings.Repeat("riders must renew the licence on time ", 6))
		paras = append(paras, strings.TrimSpace(para))
	}
	body := strings.Join(paras, "\n\n")
	doc := testDocument("licensing/renewal", "## Renewal\n\n"+body)

	cfg := DefaultChunkConfig()
	chunks := NewChunker(cfg).ChunkDocument(doc)
	require.Greater(t, len(chunks), 1)

	prefix := "## Renewal\n\n"
	var parts []string
	for i, c := range chunks {
		require.True(t, strings.HasPrefix(c.Content, prefix))
		rest := strings.TrimPrefix(c.Content, prefix)
		if i > 0 {
			overlap := tailRunes(parts[i-1], cfg.Overlap) + "\n\n"
			require.True(t, strings.HasPrefix(rest, overlap), "chunk %d should start with previous tail", i)
			rest = strings.TrimPrefix(rest, overlap)
		}
		assert.LessOrEqual(t, runeLen(rest), cfg.MaxChars)
		parts = append(parts, rest)
		assert.Equal(t, "Renewal", c.Section)
	}

	assert.Equal(t, body, strings.Join(parts, "\n\n"))
	assert.Equal(t, "licensing-renewal::renewal::1", chunks[0].ID)
	assert.Equal(t, "licensing-renewal::renewal::2", chunks[1].ID)
}

func TestChunkDocument_DuplicateHeadingsGetUniqueIDs(t *testing.T) {
	doc := testDocument("notes", "# Fees\n\nFirst fee table for class 2B riders.\n\n# Fees\n\nSecond fee table for class 2A riders.")

	chunks := NewChunker(DefaultChunkConfig()).ChunkDocument(doc)

	require.Len(t, chunks, 2)
	assert.Equal(t, "notes::fees", chunks[0].ID)
	assert.Equal(t, "notes::fees-2", chunks[1].ID)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Regulations/COE::Bidding & Quota!", "regulations-coe::bidding-quota"},
		{"  --Road   Tax--  ", "road-tax"},
		{"docs::摩托车 牌照", "docs::摩托车-牌照"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSplitLong(t *testing.T) {
	text := strings.Repeat("word ", 100)
	pieces := splitLong(strings.TrimSpace(text), 120)
	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		assert.LessOrEqual(t, runeLen(p), 120)
		assert.NotEmpty(t, p)
	}
}
