// Package testutil starts the Postgres and S3 dependencies integration
// tests run against.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/motomarket/motorag/internal/database"
	"github.com/motomarket/motorag/internal/storage"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgImage    = "postgres:17-alpine"
	pgUser     = "motorag"
	pgPassword = "motorag"
	pgDatabase = "motorag"

	minioImage  = "minio/minio:latest"
	minioUser   = "minioadmin"
	minioSecret = "minioadmin"

	startupTimeout = 60 * time.Second
)

// MigrationsDir is the schema directory relative to a package under
// internal/.
const MigrationsDir = "../../migrations"

// PostgresContainer is a throwaway Postgres holding the motorag schema.
type PostgresContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

// MinIOContainer is an S3-compatible store for the knowledge-base source.
type MinIOContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
	AccessKey string
	SecretKey string
}

// startContainer starts req and resolves the host and mapped port. The
// container is terminated when the test finishes.
func startContainer(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, port string) (testcontainers.Container, string, string) {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start %s: %v", req.Image, err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate %s: %v", req.Image, err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get %s host: %v", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("failed to get %s port: %v", req.Image, err)
	}
	return container, host, mapped.Port()
}

// NewPostgresContainer starts Postgres without applying migrations.
func NewPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	t.Helper()

	container, host, port := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        pgImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     pgUser,
			"POSTGRES_PASSWORD": pgPassword,
			"POSTGRES_DB":       pgDatabase,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(startupTimeout),
	}, "5432")

	return &PostgresContainer{Container: container, Host: host, Port: port}
}

// ConnectionString returns the DSN for the container database.
func (pc *PostgresContainer) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, pc.Host, pc.Port, pgDatabase)
}

// NewTestPool migrates the container database with the production migrator
// and returns a pool closed at test cleanup.
func NewTestPool(ctx context.Context, t *testing.T, pc *PostgresContainer) *pgxpool.Pool {
	t.Helper()

	var pool *pgxpool.Pool
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = database.NewPool(ctx, database.Config{URL: pc.ConnectionString(), MaxConns: 4})
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to connect to postgres after retries: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(pc.ConnectionString(), MigrationsDir); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return pool
}

// NewDatabase starts Postgres and returns a migrated pool.
func NewDatabase(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	return NewTestPool(ctx, t, NewPostgresContainer(ctx, t))
}

// TruncateAll empties every motorag table.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	tables := []string{"ai_response_cache", "coe_results", "listings"}
	if _, err := pool.Exec(ctx, "TRUNCATE TABLE "+strings.Join(tables, ", ")); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// NewMinIOContainer starts MinIO with the default root credentials.
func NewMinIOContainer(ctx context.Context, t *testing.T) *MinIOContainer {
	t.Helper()

	container, host, port := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        minioImage,
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioUser,
			"MINIO_ROOT_PASSWORD": minioSecret,
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(startupTimeout),
	}, "9000")

	return &MinIOContainer{
		Container: container,
		Host:      host,
		Port:      port,
		AccessKey: minioUser,
		SecretKey: minioSecret,
	}
}

// Endpoint returns the MinIO base URL.
func (mc *MinIOContainer) Endpoint() string {
	return fmt.Sprintf("http://%s:%s", mc.Host, mc.Port)
}

// NewBucket returns a client for bucket, creating the bucket first.
func (mc *MinIOContainer) NewBucket(ctx context.Context, t *testing.T, bucket string) *storage.S3Client {
	t.Helper()

	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        mc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     mc.AccessKey,
		SecretAccessKey: mc.SecretKey,
		Bucket:          bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create s3 client: %v", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket %s: %v", bucket, err)
	}
	return client
}
