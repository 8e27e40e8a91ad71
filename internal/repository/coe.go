package repository

import (
	"context"
	"math"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/motomarket/motorag/internal/domain"
)

// COERepository reads COE bidding history.
type COERepository struct {
	db dbtx
}

func NewCOERepository(pool *pgxpool.Pool) *COERepository {
	return &COERepository{db: pool}
}

func NewCOERepositoryWithTx(tx pgx.Tx) *COERepository {
	return &COERepository{db: tx}
}

// LatestCOEPrices returns the most recent result for each category.
func (r *COERepository) LatestCOEPrices(ctx context.Context) ([]domain.COEResult, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT ON (category) bidding_date, category, premium, quota, bids_received
		 FROM coe_results
		 ORDER BY category, bidding_date DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCOERows(rows)
}

// COEStatistics aggregates the full history per category.
func (r *COERepository) COEStatistics(ctx context.Context) ([]domain.COEStatistics, error) {
	rows, err := r.db.Query(ctx,
		`SELECT bidding_date, category, premium, quota, bids_received
		 FROM coe_results
		 ORDER BY category, bidding_date`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanCOERows(rows)
	if err != nil {
		return nil, err
	}
	return summarizeCOE(results), nil
}

// Create inserts one bidding result. Used by seeding and tests.
func (r *COERepository) Create(ctx context.Context, res *domain.COEResult) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO coe_results (bidding_date, category, premium, quota, bids_received)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (bidding_date, category) DO UPDATE
		 SET premium = EXCLUDED.premium, quota = EXCLUDED.quota, bids_received = EXCLUDED.bids_received`,
		res.BiddingDate, res.Category, res.Premium, res.Quota, res.BidsReceived,
	)
	return err
}

func scanCOERows(rows pgx.Rows) ([]domain.COEResult, error) {
	results := make([]domain.COEResult, 0)
	for rows.Next() {
		var res domain.COEResult
		if err := rows.Scan(&res.BiddingDate, &res.Category, &res.Premium, &res.Quota, &res.BidsReceived); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// summarizeCOE groups results by category. ChangePercent compares the latest
// premium with the exercise before it and is 0 with a single exercise.
func summarizeCOE(results []domain.COEResult) []domain.COEStatistics {
	byCategory := make(map[string][]domain.COEResult)
	for _, res := range results {
		byCategory[res.Category] = append(byCategory[res.Category], res)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	stats := make([]domain.COEStatistics, 0, len(categories))
	for _, c := range categories {
		history := byCategory[c]
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].BiddingDate.Before(history[j].BiddingDate)
		})

		s := domain.COEStatistics{
			Category:  c,
			Exercises: len(history),
			Minimum:   math.Inf(1),
			Maximum:   math.Inf(-1),
		}
		var sum float64
		for _, res := range history {
			sum += res.Premium
			s.Minimum = math.Min(s.Minimum, res.Premium)
			s.Maximum = math.Max(s.Maximum, res.Premium)
		}
		s.Average = math.Round(sum/float64(len(history))*100) / 100

		latest := history[len(history)-1]
		s.Latest = latest.Premium
		s.LatestDate = latest.BiddingDate
		if len(history) > 1 {
			prev := history[len(history)-2].Premium
			if prev != 0 {
				s.ChangePercent = math.Round((latest.Premium-prev)/prev*1000) / 10
			}
		}
		stats = append(stats, s)
	}
	return stats
}
