package facts

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/logging"
	"github.com/skylane-labs/fieldscore/pkg/models"
)

// The contract the source expects from the aeronautical database: a table or
// view exposing (ident, field, value) rows. Operators prepare the view; this
// system never learns the schema behind it.
const postgresFactsQuery = `SELECT field, value FROM airport_facts WHERE ident = $1`

// PostgresSource reads official fields from a PostgreSQL aeronautical
// database through a pgx pool.
type PostgresSource struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Compile-time check that PostgresSource implements Source.
var _ Source = (*PostgresSource)(nil)

// NewPostgres connects to the facts database and verifies reachability.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to facts database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping facts database: %w", err)
	}

	log := logger.Named("facts-postgres")
	log.Info("Connected to facts database",
		zap.String("dsn", logging.SanitizeDSN(dsn)))
	return &PostgresSource{pool: pool, logger: log}, nil
}

// Values fetches one airport's fields. Rows with field names outside the
// registry are dropped with a debug log; live databases grow fields faster
// than this system grows features.
func (s *PostgresSource) Values(ctx context.Context, ident string) (models.FactValues, error) {
	rows, err := s.pool.Query(ctx, postgresFactsQuery, ident)
	if err != nil {
		return nil, fmt.Errorf("query facts for %s: %w", ident, err)
	}
	defer rows.Close()

	values := make(models.FactValues)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scan facts row for %s: %w", ident, err)
		}
		if !IsRecognizedField(field) {
			s.logger.Debug("dropping unrecognized fact field",
				zap.String("ident", ident),
				zap.String("field", field))
			continue
		}
		values[field] = CanonicalValue(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read facts for %s: %w", ident, err)
	}
	return values, nil
}

// Fields returns the full registry; the contract view can serve any field.
func (s *PostgresSource) Fields() []string {
	return Fields()
}

// Close releases the pool.
func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}
