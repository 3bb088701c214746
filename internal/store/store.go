package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/edmsql/internal/dialect"
	"github.com/roach88/edmsql/internal/querysql"
)

// Store runs entity queries against one database.
type Store struct {
	db   *sql.DB
	meta querysql.Metadata
	dc   dialect.Context

	ids       IDGenerator
	log       *slog.Logger
	fetchSize int
}

// Option configures a Store.
type Option func(*Store)

// WithProduct overrides the product detected from the driver.
// dialect.Unknown keeps the detected one.
func WithProduct(p dialect.Product) Option {
	return func(s *Store) {
		if p != dialect.Unknown {
			s.dc.Product = p
		}
	}
}

// WithCaseSensitive quotes table and column names in every statement.
func WithCaseSensitive(on bool) Option {
	return func(s *Store) { s.dc.CaseSensitive = on }
}

// WithIDGenerator sets the generator for query ids.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithLogger sets the logger for executions and compile diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFetchSize sets the cursor jump size used when rows are skipped
// client side.
func WithFetchSize(n int) Option {
	return func(s *Store) { s.fetchSize = n }
}

// Open opens a database through a registered database/sql driver and
// detects its product.
//
// Drivers registered by this module: "postgres" (lib/pq), "pgx"
// (jackc/pgx), "mysql", "sqlite3" (mattn/go-sqlite3) and "sqlite"
// (modernc.org/sqlite). SQLite databases are configured with:
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//   - a single connection, so ":memory:" keeps its contents
func Open(driverName, dsn string, meta querysql.Metadata, opts ...Option) (*Store, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	product := dialect.FromDriver(db.Driver())
	if product == dialect.Unknown {
		product = dialect.FromDriverName(driverName)
	}

	if product == dialect.SQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return newStore(db, product, meta, opts), nil
}

// OpenDB wraps an already opened database. The product is taken from the
// driver type; use WithProduct for drivers this module does not know.
func OpenDB(db *sql.DB, meta querysql.Metadata, opts ...Option) *Store {
	return newStore(db, dialect.FromDriver(db.Driver()), meta, opts)
}

func newStore(db *sql.DB, product dialect.Product, meta querysql.Metadata, opts []Option) *Store {
	s := &Store{
		db:   db,
		meta: meta,
		dc:   dialect.Context{Product: product},
		ids:  UUIDv7Generator{},
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the dialect context statements are compiled for.
func (s *Store) Dialect() dialect.Context {
	return s.dc
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
