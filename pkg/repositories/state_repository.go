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

// StateRepository defines data access for the airport_state table, the
// incremental build bookkeeping that lets unchanged airports be skipped.
type StateRepository interface {
	// Upsert writes an airport's processing state.
	Upsert(ctx context.Context, q database.Queryer, state *models.AirportState) error

	// Get returns an airport's processing state. Returns ErrNotFound for
	// airports never processed.
	Get(ctx context.Context, q database.Queryer, ident string) (*models.AirportState, error)

	// All returns the processing state of every known airport, keyed by ident.
	All(ctx context.Context, q database.Queryer) (map[string]*models.AirportState, error)
}

// stateRepository implements StateRepository on SQLite.
type stateRepository struct{}

// NewStateRepository creates a new airport state repository.
func NewStateRepository() StateRepository {
	return &stateRepository{}
}

// Upsert writes an airport's processing state.
func (r *stateRepository) Upsert(ctx context.Context, q database.Queryer, state *models.AirportState) error {
	query := `
		INSERT INTO airport_state (airport_ident, review_digest, review_count, last_processed, last_status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(airport_ident) DO UPDATE SET
			review_digest = excluded.review_digest,
			review_count = excluded.review_count,
			last_processed = excluded.last_processed,
			last_status = excluded.last_status`

	if _, err := q.ExecContext(ctx, query,
		state.AirportIdent,
		state.ReviewDigest,
		state.ReviewCount,
		state.LastProcessed.UTC(),
		string(state.LastStatus),
	); err != nil {
		return fmt.Errorf("failed to upsert state for %s: %w", state.AirportIdent, err)
	}
	return nil
}

// Get returns an airport's processing state.
func (r *stateRepository) Get(ctx context.Context, q database.Queryer, ident string) (*models.AirportState, error) {
	query := `
		SELECT review_digest, review_count, last_processed, last_status
		FROM airport_state
		WHERE airport_ident = ?`

	state := &models.AirportState{AirportIdent: ident}
	var status string
	err := q.QueryRowContext(ctx, query, ident).Scan(
		&state.ReviewDigest,
		&state.ReviewCount,
		&state.LastProcessed,
		&status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: state for %s", apperrors.ErrNotFound, ident)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state for %s: %w", ident, err)
	}
	state.LastStatus = models.AirportStatus(status)
	return state, nil
}

// All returns the processing state of every known airport.
func (r *stateRepository) All(ctx context.Context, q database.Queryer) (map[string]*models.AirportState, error) {
	query := `
		SELECT airport_ident, review_digest, review_count, last_processed, last_status
		FROM airport_state`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list airport state: %w", err)
	}
	defer rows.Close()

	states := make(map[string]*models.AirportState)
	for rows.Next() {
		state := &models.AirportState{}
		var status string
		if err := rows.Scan(
			&state.AirportIdent,
			&state.ReviewDigest,
			&state.ReviewCount,
			&state.LastProcessed,
			&status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan airport state: %w", err)
		}
		state.LastStatus = models.AirportStatus(status)
		states[state.AirportIdent] = state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating airport state: %w", err)
	}
	return states, nil
}

// Ensure stateRepository implements StateRepository at compile time.
var _ StateRepository = (*stateRepository)(nil)
