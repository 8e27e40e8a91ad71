package repository

import (
	"testing"
	"time"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coeResult(date string, category string, premium float64) domain.COEResult {
	d, _ := time.Parse("2006-01-02", date)
	return domain.COEResult{BiddingDate: d, Category: category, Premium: premium}
}

func TestSummarizeCOE(t *testing.T) {
	stats := summarizeCOE([]domain.COEResult{
		coeResult("2024-05-22", "D", 9500),
		coeResult("2024-05-08", "D", 10000),
		coeResult("2024-04-24", "D", 8000),
		coeResult("2024-05-22", "A", 95000),
	})

	require.Len(t, stats, 2)

	a := stats[0]
	assert.Equal(t, "A", a.Category)
	assert.Equal(t, 1, a.Exercises)
	assert.Equal(t, 95000.0, a.Latest)
	assert.Equal(t, 0.0, a.ChangePercent)

	d := stats[1]
	assert.Equal(t, "D", d.Category)
	assert.Equal(t, 3, d.Exercises)
	assert.Equal(t, 9166.67, d.Average)
	assert.Equal(t, 8000.0, d.Minimum)
	assert.Equal(t, 10000.0, d.Maximum)
	assert.Equal(t, 9500.0, d.Latest)
	assert.Equal(t, "2024-05-22", d.LatestDate.Format("2006-01-02"))
	assert.Equal(t, -5.0, d.ChangePercent)
}

func TestSummarizeCOE_Empty(t *testing.T) {
	assert.Empty(t, summarizeCOE(nil))
}
