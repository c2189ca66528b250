package facts

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/logging"
	"github.com/skylane-labs/fieldscore/pkg/models"
)

// Same airport_facts contract as the postgres source, SQL Server placeholders.
const sqlserverFactsQuery = `SELECT field, value FROM airport_facts WHERE ident = @p1`

// SQLServerSource reads official fields from a SQL Server aeronautical
// database.
type SQLServerSource struct {
	db     *sql.DB
	logger *zap.Logger
}

// Compile-time check that SQLServerSource implements Source.
var _ Source = (*SQLServerSource)(nil)

// NewSQLServer connects to the facts database and verifies reachability.
func NewSQLServer(ctx context.Context, dsn string, logger *zap.Logger) (*SQLServerSource, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("open facts database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping facts database: %w", err)
	}

	log := logger.Named("facts-sqlserver")
	log.Info("Connected to facts database",
		zap.String("dsn", logging.SanitizeDSN(dsn)))
	return &SQLServerSource{db: db, logger: log}, nil
}

// Values fetches one airport's fields, dropping unrecognized field names the
// same way the postgres source does.
func (s *SQLServerSource) Values(ctx context.Context, ident string) (models.FactValues, error) {
	rows, err := s.db.QueryContext(ctx, sqlserverFactsQuery, ident)
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
func (s *SQLServerSource) Fields() []string {
	return Fields()
}

// Close releases the connection.
func (s *SQLServerSource) Close() error {
	return s.db.Close()
}
