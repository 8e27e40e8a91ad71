package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/motomarket/motorag/internal/domain"
)

const (
	defaultListingLimit = 5
	maxListingLimit     = 50
)

const listingColumns = `id, title, brand, model, year, price, engine_cc, license_class, mileage, coe_expiry, status, created_at`

// ListingRepository reads marketplace listings for the tool layer.
type ListingRepository struct {
	db dbtx
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{db: pool}
}

func NewListingRepositoryWithTx(tx pgx.Tx) *ListingRepository {
	return &ListingRepository{db: tx}
}

// SearchListings returns listings matching filter, newest first.
func (r *ListingRepository) SearchListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	where, args := listingWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListingLimit
	}
	if limit > maxListingLimit {
		limit = maxListingLimit
	}
	args = append(args, limit)

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListingRows(rows)
}

// GetListingsByIDs returns the listings with the given ids in the order
// the ids were given. Unknown ids are skipped.
func (r *ListingRepository) GetListingsByIDs(ctx context.Context, ids []string) ([]domain.Listing, error) {
	if len(ids) == 0 {
		return []domain.Listing{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found, err := scanListingRows(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}
	ordered := make([]domain.Listing, 0, len(found))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			ordered = append(ordered, l)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// Create inserts a listing. Used by seeding and tests.
func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO listings (`+listingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		l.ID, l.Title, l.Brand, l.Model, nullableInt(l.Year), l.Price, nullableInt(l.EngineCC),
		nullableString(l.LicenseClass), nullableInt(l.Mileage), l.COEExpiry, l.Status, l.CreatedAt,
	)
	return err
}

func listingWhere(filter domain.ListingFilter) ([]string, []any) {
	var where []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Brand != "" {
		add("brand ILIKE $%d", "%"+escapeLike(filter.Brand)+"%")
	}
	if filter.MinPrice > 0 {
		add("price >= $%d", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		add("price <= $%d", filter.MaxPrice)
	}
	if filter.LicenseClass != "" {
		add("license_class = $%d", strings.ToUpper(filter.LicenseClass))
	}
	return where, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanListingRows(rows pgx.Rows) ([]domain.Listing, error) {
	listings := make([]domain.Listing, 0)
	for rows.Next() {
		var l domain.Listing
		var year, engineCC, mileage *int
		var licenseClass *string
		if err := rows.Scan(&l.ID, &l.Title, &l.Brand, &l.Model, &year, &l.Price, &engineCC,
			&licenseClass, &mileage, &l.COEExpiry, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		if year != nil {
			l.Year = *year
		}
		if engineCC != nil {
			l.EngineCC = *engineCC
		}
		if mileage != nil {
			l.Mileage = *mileage
		}
		if licenseClass != nil {
			l.LicenseClass = *licenseClass
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
