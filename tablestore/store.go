package tablestore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DefaultPath is the database file used when Open is given an empty path.
const DefaultPath = ".db"

// memoryPath is the SQLite name of a private in-memory database. It is not
// resolved against the working directory.
const memoryPath = ":memory:"

// Row is one result row. Values have the Go types produced by the driver
// (int64, float64, string, []byte or nil for SQLite).
type Row []any

// Option configures a Store.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	dialect Dialect
	mem     memory.Allocator
}

// WithLogger sets the logger used to trace executed statements at debug
// level. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithDialect selects the database engine. The default is SQLite.
func WithDialect(d Dialect) Option {
	return func(c *config) {
		c.dialect = d
	}
}

// WithAllocator sets the allocator used to build Arrow records. The default
// is memory.DefaultAllocator.
func WithAllocator(mem memory.Allocator) Option {
	return func(c *config) {
		c.mem = mem
	}
}

// Store is a handle on one embedded database file. It holds a single
// connection for its whole lifetime and is not safe for concurrent use.
type Store struct {
	db      *sql.DB
	path    string
	dialect Dialect
	log     *slog.Logger
	mem     memory.Allocator
}

// Open opens (creating if absent) the database file at path. The path is
// resolved to an absolute path. The caller must Close the returned Store.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	cfg := &config{
		logger:  slog.New(slog.DiscardHandler),
		dialect: SQLite,
		mem:     memory.DefaultAllocator,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if path == "" {
		path = DefaultPath
	}
	if path != memoryPath {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving database path: %w", err)
		}
		path = abs
	}

	db, err := sql.Open(cfg.dialect.Driver, path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// One connection: the handle owns exactly one, and private in-memory
	// databases are per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	cfg.logger.DebugContext(ctx, "opened database", "path", path, "dialect", cfg.dialect.String())
	return &Store{
		db:      db,
		path:    path,
		dialect: cfg.dialect,
		log:     cfg.logger,
		mem:     cfg.mem,
	}, nil
}

// With opens the database at path, calls fn, and closes the database on
// every exit path, including when fn returns an error or panics.
func With(ctx context.Context, path string, fn func(*Store) error, opts ...Option) (err error) {
	s, err := Open(ctx, path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing database: %w", cerr)
		}
	}()
	return fn(s)
}

// Close releases the connection.
func (s *Store) Close() error {
	s.log.Debug("closing database", "path", s.path)
	return s.db.Close()
}

// Path returns the absolute path of the database file.
func (s *Store) Path() string {
	return s.path
}

// Dialect returns the engine dialect of the store.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Query executes arbitrary SQL and returns all result rows. The query text is
// not validated.
//
// Query does not open a transaction. Statements that change state run in the
// engine's autocommit mode and are committed as soon as they complete, so
// DDL or DML issued through Query cannot be rolled back by a later failure.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	s.log.DebugContext(ctx, "query", "sql", query)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		row := make(Row, len(cols))
		dest := make([]any, len(cols))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Tables returns the names of all tables in catalog order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("listing tables: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return names, nil
}

// HasTable reports whether the table is present in the catalog.
func (s *Store) HasTable(ctx context.Context, name string) (bool, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(tables, name), nil
}

// requireTable returns a *TableNotFoundError if the table is absent.
func (s *Store) requireTable(ctx context.Context, name string) error {
	ok, err := s.HasTable(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return &TableNotFoundError{Name: name}
	}
	return nil
}

// exec runs a single statement in autocommit mode.
func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	s.log.DebugContext(ctx, "exec", "sql", query)
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// inTx runs fn in a transaction that is committed if fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// Snapshot writes a consistent copy of the database to dst, which must not
// already exist.
func (s *Store) Snapshot(ctx context.Context, dst string) error {
	if s.dialect.snapshot == "" {
		return fmt.Errorf("snapshot is not supported by %s", s.dialect)
	}
	abs, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("resolving snapshot path: %w", err)
	}
	if err := s.exec(ctx, s.dialect.snapshot, abs); err != nil {
		return fmt.Errorf("writing snapshot to %s: %w", abs, err)
	}
	return nil
}
