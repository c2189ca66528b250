package database

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
)

// Feature names become airport_scores columns and are spliced into DDL, so
// they are re-checked here even though the feature loader enforces the same
// shape.
var columnNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// Columns that belong to the table itself rather than to any feature.
var reservedScoreColumns = map[string]struct{}{
	"airport_ident": {},
	"updated_at":    {},
}

// ReconcileFeatureColumns adds a nullable REAL column to airport_scores for
// every declared feature that does not have one yet. Existing columns are
// never dropped: scores for retired features stop being written and read,
// but old data stays queryable.
func (s *Store) ReconcileFeatureColumns(ctx context.Context, features []string) error {
	existing, err := s.tableColumns(ctx, "airport_scores")
	if err != nil {
		return fmt.Errorf("inspect airport_scores: %w", err)
	}

	added := 0
	for _, name := range features {
		if _, ok := existing[name]; ok {
			continue
		}
		if _, ok := reservedScoreColumns[name]; ok {
			return apperrors.NewValidationError(fmt.Errorf("feature name %q collides with a reserved column", name))
		}
		if !columnNamePattern.MatchString(name) {
			return apperrors.NewValidationError(fmt.Errorf("feature name %q is not a valid column name", name))
		}

		if _, err := s.db.ExecContext(ctx,
			fmt.Sprintf("ALTER TABLE airport_scores ADD COLUMN %s REAL", name)); err != nil {
			return fmt.Errorf("add feature column %s: %w", name, err)
		}
		added++
	}

	if added > 0 {
		s.logger.Info("Added feature columns to score table",
			zap.Int("added", added),
			zap.Int("declared", len(features)))
	}
	return nil
}

// FeatureColumns returns the feature columns currently on airport_scores in
// sorted order, excluding the reserved bookkeeping columns.
func (s *Store) FeatureColumns(ctx context.Context) ([]string, error) {
	existing, err := s.tableColumns(ctx, "airport_scores")
	if err != nil {
		return nil, fmt.Errorf("inspect airport_scores: %w", err)
	}

	var features []string
	for name := range existing {
		if _, reserved := reservedScoreColumns[name]; reserved {
			continue
		}
		features = append(features, name)
	}
	sort.Strings(features)
	return features, nil
}

func (s *Store) tableColumns(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]struct{})
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns[name] = struct{}{}
	}
	return columns, rows.Err()
}
