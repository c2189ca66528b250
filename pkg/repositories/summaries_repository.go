package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/database"
	"github.com/skylane-labs/fieldscore/pkg/models"
)

// SummariesRepository defines data access for the airport_summaries table.
type SummariesRepository interface {
	// Upsert writes an airport's summary, replacing any previous one.
	Upsert(ctx context.Context, q database.Queryer, summary *models.AirportSummary) error

	// Get returns an airport's summary. Returns ErrNotFound when the airport
	// has none.
	Get(ctx context.Context, q database.Queryer, ident string) (*models.AirportSummary, error)

	// Delete removes an airport's summary, if present. Used when a rebuild
	// produces no summary for an airport that had one.
	Delete(ctx context.Context, q database.Queryer, ident string) error
}

// summariesRepository implements SummariesRepository on SQLite.
type summariesRepository struct{}

// NewSummariesRepository creates a new summaries repository.
func NewSummariesRepository() SummariesRepository {
	return &summariesRepository{}
}

// Upsert writes an airport's summary.
func (r *summariesRepository) Upsert(ctx context.Context, q database.Queryer, summary *models.AirportSummary) error {
	query := `
		INSERT INTO airport_summaries (airport_ident, summary, review_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(airport_ident) DO UPDATE SET
			summary = excluded.summary,
			review_count = excluded.review_count,
			updated_at = excluded.updated_at`

	if _, err := q.ExecContext(ctx, query,
		summary.AirportIdent,
		summary.Summary,
		summary.ReviewCount,
		summary.GeneratedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to upsert summary for %s: %w", summary.AirportIdent, err)
	}
	return nil
}

// Get returns an airport's summary.
func (r *summariesRepository) Get(ctx context.Context, q database.Queryer, ident string) (*models.AirportSummary, error) {
	query := `
		SELECT summary, review_count, updated_at
		FROM airport_summaries
		WHERE airport_ident = ?`

	summary := &models.AirportSummary{AirportIdent: ident}
	err := q.QueryRowContext(ctx, query, ident).Scan(
		&summary.Summary,
		&summary.ReviewCount,
		&summary.GeneratedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: summary for %s", apperrors.ErrNotFound, ident)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary for %s: %w", ident, err)
	}
	return summary, nil
}

// Delete removes an airport's summary.
func (r *summariesRepository) Delete(ctx context.Context, q database.Queryer, ident string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM airport_summaries WHERE airport_ident = ?", ident); err != nil {
		return fmt.Errorf("failed to delete summary for %s: %w", ident, err)
	}
	return nil
}

// Ensure summariesRepository implements SummariesRepository at compile time.
var _ SummariesRepository = (*summariesRepository)(nil)
