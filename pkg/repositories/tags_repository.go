package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skylane-labs/fieldscore/pkg/database"
	"github.com/skylane-labs/fieldscore/pkg/models"
)

// TagsRepository defines data access for the airport_tags table. Tags are
// replaced wholesale per airport: a rebuild of an airport always re-derives
// its full tag set.
type TagsRepository interface {
	// Replace swaps the airport's persisted tags for the given set. An empty
	// set clears the airport's tags.
	Replace(ctx context.Context, q database.Queryer, ident string, tags []models.Tag) error

	// GetByAirport returns the airport's tags ordered by aspect, label, and
	// review id. No rows is an empty slice, not an error.
	GetByAirport(ctx context.Context, q database.Queryer, ident string) ([]models.Tag, error)
}

// tagsRepository implements TagsRepository on SQLite.
type tagsRepository struct{}

// NewTagsRepository creates a new tags repository.
func NewTagsRepository() TagsRepository {
	return &tagsRepository{}
}

// Replace swaps the airport's persisted tags for the given set.
func (r *tagsRepository) Replace(ctx context.Context, q database.Queryer, ident string, tags []models.Tag) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM airport_tags WHERE airport_ident = ?", ident); err != nil {
		return fmt.Errorf("failed to clear tags for %s: %w", ident, err)
	}

	query := `
		INSERT INTO airport_tags (airport_ident, review_id, aspect, label, confidence, observed_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	for _, tag := range tags {
		if _, err := q.ExecContext(ctx, query,
			ident,
			nullEmpty(tag.ReviewID),
			tag.Aspect,
			tag.Label,
			tag.Confidence,
			tag.ObservedAt,
		); err != nil {
			return fmt.Errorf("failed to insert tag for %s: %w", ident, err)
		}
	}
	return nil
}

// GetByAirport returns the airport's tags ordered by aspect, label, and review id.
func (r *tagsRepository) GetByAirport(ctx context.Context, q database.Queryer, ident string) ([]models.Tag, error) {
	query := `
		SELECT review_id, aspect, label, confidence, observed_at
		FROM airport_tags
		WHERE airport_ident = ?
		ORDER BY aspect, label, review_id`

	rows, err := q.QueryContext(ctx, query, ident)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags for %s: %w", ident, err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var (
			tag        models.Tag
			reviewID   sql.NullString
			observedAt sql.NullTime
		)
		if err := rows.Scan(&reviewID, &tag.Aspect, &tag.Label, &tag.Confidence, &observedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tag.AirportIdent = ident
		tag.ReviewID = reviewID.String
		if observedAt.Valid {
			ts := observedAt.Time
			tag.ObservedAt = &ts
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}

// nullEmpty maps "" to NULL so anonymous-source tags don't fake an id.
func nullEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Ensure tagsRepository implements TagsRepository at compile time.
var _ TagsRepository = (*tagsRepository)(nil)
