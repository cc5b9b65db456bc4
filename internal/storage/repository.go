// Package storage is the SQL implementation of store.Store. The same queries
// run on SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq); they are written
// with '?' placeholders and rebound for PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"betledger/internal/log"
	"betledger/internal/store"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

type Repository struct {
	db      *sql.DB
	dialect Dialect
	logger  *log.Logger

	mu     sync.Mutex
	lastTS time.Time
}

var _ store.Store = (*Repository)(nil)

// NewSQLiteRepository opens (and creates, if needed) the database file at dbPath.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	if err := RunMigrations(SQLite, dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers, which the read-merge-write
	// entry upsert relies on.
	db.SetMaxOpenConns(1)
	return newRepository(db, SQLite, logger)
}

// NewPostgresRepository connects to dsn and applies migrations.
func NewPostgresRepository(dsn string, logger *log.Logger) (*Repository, error) {
	if err := RunMigrations(Postgres, dsn); err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return newRepository(db, Postgres, logger)
}

func newRepository(db *sql.DB, dialect Dialect, logger *log.Logger) (*Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Repository{
		db:      db,
		dialect: dialect,
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *Repository) Dialect() Dialect { return r.dialect }

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// rebind rewrites '?' placeholders to the dialect's form.
func (r *Repository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// now returns a strictly increasing timestamp with microsecond precision, so
// creation order survives both SQLite text and PostgreSQL timestamptz.
func (r *Repository) now() timestamp {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(r.lastTS) {
		t = r.lastTS.Add(time.Microsecond)
	}
	r.lastTS = t
	return timestamp{t}
}

// withTx runs fn in a transaction, rolling back on error.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func notFound(what, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, store.ErrNotFound)
	}
	return fmt.Errorf("get %s %s: %w", what, id, err)
}

const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// timestamp stores times as fixed-width UTC text, which sorts correctly in
// SQLite and is accepted by PostgreSQL timestamptz columns.
type timestamp struct {
	time.Time
}

func (t timestamp) Value() (driver.Value, error) {
	return t.UTC().Format(timestampLayout), nil
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: invalid value %q", s)
}
