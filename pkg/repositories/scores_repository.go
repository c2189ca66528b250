// Package repositories contains the data access layer for the score store.
// Every method takes a database.Queryer so the build pipeline can run a
// whole airport's writes inside one transaction while reads go straight to
// the connection.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/database"
	"github.com/skylane-labs/fieldscore/pkg/models"
)

// ScoresRepository defines data access for the airport_scores table.
// Feature columns are dynamic: callers pass the declared feature list so
// queries target exactly the current configuration's columns.
type ScoresRepository interface {
	// Upsert writes one airport's feature scores. A nil value becomes NULL.
	// Every name in features must already have a column (see
	// Store.ReconcileFeatureColumns).
	Upsert(ctx context.Context, q database.Queryer, scores *models.FeatureScores, features []string, updatedAt time.Time) error

	// Get reads one airport's scores across the given features.
	// Returns ErrAirportNotScored when the airport has no row.
	Get(ctx context.Context, q database.Queryer, ident string, features []string) (*models.FeatureScores, error)

	// Idents returns every scored airport ident in sorted order.
	Idents(ctx context.Context, q database.Queryer) ([]string, error)
}

// scoresRepository implements ScoresRepository on SQLite.
type scoresRepository struct{}

// NewScoresRepository creates a new scores repository.
func NewScoresRepository() ScoresRepository {
	return &scoresRepository{}
}

// Upsert writes one airport's feature scores.
func (r *scoresRepository) Upsert(ctx context.Context, q database.Queryer, scores *models.FeatureScores, features []string, updatedAt time.Time) error {
	columns := make([]string, 0, len(features)+2)
	updates := make([]string, 0, len(features)+1)
	args := make([]any, 0, len(features)+2)

	columns = append(columns, "airport_ident")
	args = append(args, scores.AirportIdent)

	for _, feature := range features {
		columns = append(columns, feature)
		// A nil *float64 is passed through as SQL NULL.
		args = append(args, scores.Values[feature])
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", feature, feature))
	}

	columns = append(columns, "updated_at")
	args = append(args, updatedAt.UTC())
	updates = append(updates, "updated_at = excluded.updated_at")

	query := fmt.Sprintf(`
		INSERT INTO airport_scores (%s)
		VALUES (%s)
		ON CONFLICT(airport_ident) DO UPDATE SET %s`,
		strings.Join(columns, ", "),
		placeholders(len(columns)),
		strings.Join(updates, ", "))

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert scores for %s: %w", scores.AirportIdent, err)
	}
	return nil
}

// Get reads one airport's scores across the given features.
func (r *scoresRepository) Get(ctx context.Context, q database.Queryer, ident string, features []string) (*models.FeatureScores, error) {
	scores := &models.FeatureScores{
		AirportIdent: ident,
		Values:       make(map[string]*float64, len(features)),
	}

	if len(features) == 0 {
		var found string
		err := q.QueryRowContext(ctx,
			"SELECT airport_ident FROM airport_scores WHERE airport_ident = ?", ident).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAirportNotScored, ident)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get scores for %s: %w", ident, err)
		}
		return scores, nil
	}

	query := fmt.Sprintf(
		"SELECT %s FROM airport_scores WHERE airport_ident = ?",
		strings.Join(features, ", "))

	raw := make([]sql.NullFloat64, len(features))
	dest := make([]any, len(features))
	for i := range raw {
		dest[i] = &raw[i]
	}

	err := q.QueryRowContext(ctx, query, ident).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAirportNotScored, ident)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scores for %s: %w", ident, err)
	}

	for i, feature := range features {
		if raw[i].Valid {
			v := raw[i].Float64
			scores.Values[feature] = &v
		} else {
			scores.Values[feature] = nil
		}
	}
	return scores, nil
}

// Idents returns every scored airport ident in sorted order.
func (r *scoresRepository) Idents(ctx context.Context, q database.Queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT airport_ident FROM airport_scores ORDER BY airport_ident")
	if err != nil {
		return nil, fmt.Errorf("failed to list scored airports: %w", err)
	}
	defer rows.Close()

	var idents []string
	for rows.Next() {
		var ident string
		if err := rows.Scan(&ident); err != nil {
			return nil, fmt.Errorf("failed to scan airport ident: %w", err)
		}
		idents = append(idents, ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scored airports: %w", err)
	}
	return idents, nil
}

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// Ensure scoresRepository implements ScoresRepository at compile time.
var _ ScoresRepository = (*scoresRepository)(nil)
