package facts

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Drivers selectable via configuration.
const (
	DriverStatic    = "static"
	DriverPostgres  = "postgres"
	DriverSQLServer = "sqlserver"
)

// NewFromConfig creates a fact source for the configured driver. An empty
// driver returns an empty static source, so builds without official data run
// review-only without special cases downstream. For the static driver the
// dsn is a facts file path.
func NewFromConfig(ctx context.Context, driver, dsn string, logger *zap.Logger) (Source, error) {
	switch driver {
	case "":
		return NewStatic(nil), nil
	case DriverStatic:
		if dsn == "" {
			return nil, fmt.Errorf("static facts driver requires a file path")
		}
		return LoadStaticFile(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres facts driver requires a dsn")
		}
		return NewPostgres(ctx, dsn, logger)
	case DriverSQLServer:
		if dsn == "" {
			return nil, fmt.Errorf("sqlserver facts driver requires a dsn")
		}
		return NewSQLServer(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("unknown facts driver: %q", driver)
	}
}
