// Package storage opens the fleet database for the configured engine and
// keeps its schema current.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/fleetdesk/taxi/orm"
)

// Options selects the engine and connection.
type Options struct {
	Dialect      string
	DSN          string
	MaxOpenConns int
	// Logger, when set, receives every statement the store executes.
	Logger orm.Logger
}

// Store owns the connection pool.
type Store struct {
	raw *sql.DB
	db  *orm.DB
}

// Open connects to the database described by opts and pings it.
// Migrations are not applied; call Migrate.
func Open(ctx context.Context, opts Options) (*Store, error) {
	dialect, err := orm.DialectByName(opts.Dialect)
	if err != nil {
		return nil, err //nolint:wrapcheck // already prefixed
	}
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, fmt.Errorf("storage: dsn is required")
	}

	var raw *sql.DB
	switch dialect {
	case orm.MySQL:
		raw, err = openMySQL(opts.DSN)
	case orm.PostgreSQL:
		raw, err = openPostgres(opts.DSN)
	default:
		raw, err = openSQLite(opts.DSN)
	}
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 && dialect != orm.SQLite {
		raw.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("storage: ping %s: %w", dialect.Name(), err)
	}

	db := orm.New(raw, dialect)
	if opts.Logger != nil {
		db = db.Debug(opts.Logger)
	}
	return &Store{raw: raw, db: db}, nil
}

// DB returns the ORM handle.
func (s *Store) DB() *orm.DB { return s.db }

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.raw == nil {
		return nil
	}
	return s.raw.Close() //nolint:wrapcheck // thin wrapper
}

func openMySQL(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: mysql connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse postgres dsn: %w", err)
	}
	return stdlib.OpenDB(*cfg), nil
}

func openSQLite(dsn string) (*sql.DB, error) {
	raw, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	// Every connection to ":memory:" is a separate database, and SQLite
	// allows a single writer anyway.
	raw.SetMaxOpenConns(1)
	return raw, nil
}

// sqliteDSN enables foreign keys (needed for ON DELETE CASCADE) and a busy
// timeout. File databases also switch to WAL.
func sqliteDSN(dsn string) string {
	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if !isMemoryDSN(dsn) {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}

func isMemoryDSN(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
