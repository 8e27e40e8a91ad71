package service

import (
	"testing"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantType   domain.IntentType
		wantCat    string
		confidence float64
	}{
		{
			name:       "current COE price is a tool query",
			query:      "What is the current COE price for motorcycles?",
			wantType:   domain.IntentTool,
			confidence: 1,
		},
		{
			name:       "licensing regulation",
			query:      "How do I renew my class 2B licence?",
			wantType:   domain.IntentRegulation,
			wantCat:    "licensing",
			confidence: 1,
		},
		{
			name:       "regulation wins a tie with market",
			query:      "insurance cost is cheap",
			wantType:   domain.IntentRegulation,
			wantCat:    "insurance",
			confidence: 9.0 / 15.0,
		},
		{
			name:       "market query",
			query:      "Which bike has the best resale value?",
			wantType:   domain.IntentMarket,
			confidence: 11.0 / 12.0,
		},
		{
			name:       "tool must clearly beat market",
			query:      "latest price trend and cost",
			wantType:   domain.IntentMarket,
			confidence: 1,
		},
		{
			name:       "weak regulation signal",
			query:      "2b?",
			wantType:   domain.IntentRegulation,
			wantCat:    "licensing",
			confidence: 2.0 / 15.0,
		},
		{
			name:       "general fallback",
			query:      "hello there",
			wantType:   domain.IntentGeneral,
			confidence: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyIntent(tt.query, nil)

			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantCat, got.Category)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestClassifyIntent_RecordsMatchedKeywords(t *testing.T) {
	got := ClassifyIntent("What is the current COE price for motorcycles?", nil)

	assert.Equal(t, []string{"current", "coe price"}, got.Keywords)
}

func TestClassifyIntent_WeakRegulationIsCapped(t *testing.T) {
	// a strong regulation score that still loses to market falls through to market
	got := ClassifyIntent("coe price cost value worth trend", nil)
	assert.Equal(t, domain.IntentMarket, got.Type)

	got = ClassifyIntent("2a", nil)
	assert.Equal(t, domain.IntentRegulation, got.Type)
	assert.LessOrEqual(t, got.Confidence, 0.5)
}

func TestClassifyIntent_ListingContextWins(t *testing.T) {
	chatCtx := &domain.ChatContext{Listing: &domain.Listing{ID: "l-1", Brand: "Honda"}}

	for _, q := range []string{"What is the current COE price?", "road tax for 400cc", "hi", ""} {
		got := ClassifyIntent(q, chatCtx)
		assert.Equal(t, domain.IntentListing, got.Type)
		assert.Equal(t, 0.9, got.Confidence)
		assert.Empty(t, got.Category)
	}
}

func TestClassifyIntent_ComparisonOnlyContextDoesNotPin(t *testing.T) {
	chatCtx := &domain.ChatContext{Comparison: []domain.Listing{{ID: "a"}, {ID: "b"}}}

	got := ClassifyIntent("hello there", chatCtx)

	assert.Equal(t, domain.IntentGeneral, got.Type)
}
