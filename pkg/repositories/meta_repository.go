package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/database"
)

// MetaRepository defines data access for the build_meta key-value table,
// which records which inputs and configuration versions produced the store.
type MetaRepository interface {
	// Set writes a metadata key, replacing any previous value.
	Set(ctx context.Context, q database.Queryer, key, value string) error

	// Get returns a metadata value. Returns ErrNotFound for unknown keys.
	Get(ctx context.Context, q database.Queryer, key string) (string, error)

	// All returns every metadata entry.
	All(ctx context.Context, q database.Queryer) (map[string]string, error)
}

// metaRepository implements MetaRepository on SQLite.
type metaRepository struct{}

// NewMetaRepository creates a new build metadata repository.
func NewMetaRepository() MetaRepository {
	return &metaRepository{}
}

// Set writes a metadata key.
func (r *metaRepository) Set(ctx context.Context, q database.Queryer, key, value string) error {
	query := `
		INSERT INTO build_meta (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := q.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}

// Get returns a metadata value.
func (r *metaRepository) Get(ctx context.Context, q database.Queryer, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM build_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: meta key %s", apperrors.ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	return value, nil
}

// All returns every metadata entry.
func (r *metaRepository) All(ctx context.Context, q database.Queryer) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT key, value FROM build_meta")
	if err != nil {
		return nil, fmt.Errorf("failed to list meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan meta entry: %w", err)
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meta: %w", err)
	}
	return meta, nil
}

// Ensure metaRepository implements MetaRepository at compile time.
var _ MetaRepository = (*metaRepository)(nil)
