// Package testhelpers provides shared infrastructure for integration tests.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// FactsImage is the PostgreSQL image backing the facts database container.
const FactsImage = "postgres:16-alpine"

// FactsDB holds a shared facts database container exposing the
// airport_facts(ident, field, value) contract the fact sources query.
type FactsDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedFactsDB     *FactsDB
	sharedFactsDBOnce sync.Once
	sharedFactsDBErr  error
)

// GetFactsDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
// Tests seed their own idents; use distinct idents per test to stay isolated.
func GetFactsDB(t *testing.T) *FactsDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedFactsDBOnce.Do(func() {
		sharedFactsDB, sharedFactsDBErr = setupFactsDB()
	})

	if sharedFactsDBErr != nil {
		t.Fatalf("Failed to setup facts database: %v", sharedFactsDBErr)
	}

	return sharedFactsDB
}

func setupFactsDB() (*FactsDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        FactsImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "aipdata",
			"POSTGRES_USER":     "fieldscore",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start facts container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://fieldscore:test_password@%s:%s/aipdata?sslmode=disable",
		host, port.Port())

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS airport_facts (
			ident TEXT NOT NULL,
			field TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (ident, field)
		)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create airport_facts contract table: %w", err)
	}

	return &FactsDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

// SeedFacts inserts (ident, field, value) rows, replacing existing ones.
func SeedFacts(t *testing.T, db *FactsDB, ident string, fields map[string]string) {
	t.Helper()

	ctx := context.Background()
	for field, value := range fields {
		_, err := db.Pool.Exec(ctx, `
			INSERT INTO airport_facts (ident, field, value) VALUES ($1, $2, $3)
			ON CONFLICT (ident, field) DO UPDATE SET value = EXCLUDED.value`,
			ident, field, value)
		if err != nil {
			t.Fatalf("Failed to seed facts for %s: %v", ident, err)
		}
	}
}
