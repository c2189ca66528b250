package database

import (
	"context"
	"database/sql"
)

// Queryer is the subset of sql.DB and sql.Tx the repositories operate
// through, so the same method body serves direct and transactional calls.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Ensure both connection types satisfy Queryer at compile time.
var (
	_ Queryer = (*sql.DB)(nil)
	_ Queryer = (*sql.Tx)(nil)
)
