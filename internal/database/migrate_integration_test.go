//go:build integration

package database_test

import (
	"context"
	"testing"

	"github.com/motomarket/motorag/internal/database"
	"github.com/motomarket/motorag/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_AppliesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)

	require.NoError(t, database.Migrate(pc.ConnectionString(), testutil.MigrationsDir))
	require.NoError(t, database.Migrate(pc.ConnectionString(), testutil.MigrationsDir))

	pool, err := database.NewPool(ctx, database.Config{URL: pc.ConnectionString(), MaxConns: 4})
	require.NoError(t, err)
	defer pool.Close()

	var tables int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_name IN ('listings', 'coe_results', 'ai_response_cache')`,
	).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 3, tables)
}
