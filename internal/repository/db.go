package repository

import (
	"context"
	"fmt"
	"strings"

	model "agentbay/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Store is the relational implementation of AuctionDB and Catalog
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the database, applies the schema and returns a Store
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		dsn = withSQLitePragmas(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("open store: unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite has a single writer; one connection serializes every
		// transaction, across products too, and keeps :memory: databases
		// shared. Parallel bidding across products needs the pgx driver.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open store: ping: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open store: schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema(ctx context.Context) error {
	schema := sqliteSchema
	if s.driver == DriverPostgres {
		schema = postgresSchema
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// forUpdate returns the row-lock suffix for the product lock query.
// sqlite has no row locks; its single connection already serializes writers.
func (s *Store) forUpdate() string {
	if s.driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

func withSQLitePragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// statusArgs converts statuses into plain strings for IN clauses
func statusArgs(statuses []model.BidStatus) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}

// nullFloat turns an optional amount into a driver value
func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
