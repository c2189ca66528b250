// Package database owns the embedded score store: a single SQLite file the
// build pipeline writes and downstream consumers attach read-only. The
// connection is capped at one open conn, so every write in the process is
// serialized through it; WAL mode keeps outside readers unblocked while a
// build commits.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Config holds score store settings.
type Config struct {
	// Path is the SQLite file path, or ":memory:" for throwaway stores.
	Path string

	// BusyTimeout bounds how long a statement waits on a locked database
	// before failing with SQLITE_BUSY. Zero means 5s.
	BusyTimeout time.Duration
}

// Store wraps the SQLite connection for the score store.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens (creating if needed) the score store at cfg.Path and applies
// the connection pragmas. It does not run migrations; call Migrate next.
func Open(cfg *Config, logger *zap.Logger) (*Store, error) {
	busyTimeout := cfg.BusyTimeout
	if busyTimeout == 0 {
		busyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open score store: %w", err)
	}

	// One writer connection. SQLite serializes writes anyway; a second
	// connection would only add lock contention, and an in-memory store
	// would silently split into two databases.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping score store: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	// WAL lets read-only consumers keep querying while a build commits.
	// In-memory stores report journal_mode=memory instead; not an error.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Warn("failed to enable WAL mode", zap.String("path", cfg.Path), zap.Error(err))
	}

	return &Store{db: db, path: cfg.Path, logger: logger.Named("store")}, nil
}

// DB returns the underlying connection for repositories.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the store's file path.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the connection is alive.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing on nil and rolling back
// on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
