// Package store is kestrel's relational backing store.
//
// It owns the schema and all SQL that touches tasks, projects, tags and saved
// filters. Both SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq) are
// supported; queries are written with "?" placeholders and rebound for the
// active dialect.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/aidanlsb/kestrel/internal/logging"
	"github.com/aidanlsb/kestrel/internal/sqlutil"
)

// ErrNotFound indicates the requested row does not exist for the user.
var ErrNotFound = errors.New("not found")

const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 12
)

// Store is the database handle.
type Store struct {
	db      *sql.DB
	dialect sqlutil.Dialect
	clock   clockwork.Clock
	logger  logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithLogger attaches a logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the database and applies the schema. For SQLite the dsn is
// a file path whose parent directory is created if needed.
func Open(ctx context.Context, dialect sqlutil.Dialect, dsn string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database dsn is required")
	}
	if dialect == sqlutil.SQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", dialect)
	}
	if dialect == sqlutil.SQLite && dsn == ":memory:" {
		// Every new connection to :memory: is a fresh, empty database.
		db.SetMaxOpenConns(1)
	}

	s := FromDB(db, dialect, opts...)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Infow("opened store", "dialect", dialect)
	return s, nil
}

// OpenInMemory opens an empty in-memory SQLite store.
func OpenInMemory(opts ...Option) (*Store, error) {
	return Open(context.Background(), sqlutil.SQLite, ":memory:", opts...)
}

// FromDB wraps an existing connection without touching the schema.
func FromDB(db *sql.DB, dialect sqlutil.Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		clock:   clockwork.NewRealClock(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect reports the SQL dialect in use.
func (s *Store) Dialect() sqlutil.Dialect {
	return s.dialect
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := schema
	if s.dialect == sqlutil.SQLite {
		stmts = append(append([]string{}, sqlitePragmas...), schema...)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "apply schema %q", firstLine(stmt))
		}
	}
	return nil
}

func (s *Store) rebind(query string) string {
	return sqlutil.Rebind(s.dialect, query)
}

func (s *Store) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.rebind(query), args...)
}

// withTx runs fn in a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

func (s *Store) newID() (string, error) {
	id, err := gonanoid.Generate(idAlphabet, idLength)
	if err != nil {
		return "", errors.Wrap(err, "generate id")
	}
	return id, nil
}

func (s *Store) now() int64 {
	return toMillis(s.clock.Now())
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
