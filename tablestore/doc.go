// Package tablestore is a small wrapper around an embedded relational database
// for scripts that need lightweight persistent tables without writing the same
// SQL over and over. It creates, renames, drops, fetches, appends to and
// deduplicates tables, and converts table contents to and from Apache Arrow
// records.
//
// A [Store] owns a single connection to one database file. Open it with
// [Open] and release it with [Store.Close], or use [With] to scope the
// connection to a function:
//
//	err := tablestore.With(ctx, "data.db", func(s *tablestore.Store) error {
//		cols := []tablestore.Column{{Name: "id", Type: tablestore.Integer}, {Name: "name", Type: tablestore.Text}}
//		if err := s.CreateTable(ctx, "users", cols); err != nil {
//			return err
//		}
//		return s.InsertRows(ctx, "users", []tablestore.Row{{1, "alice"}, {2, "bob"}})
//	})
//
// Every operation that targets an existing table first checks the live
// catalog and returns a [*TableNotFoundError] when the table is absent. The
// insert operations return [ErrEmptyInput] for empty payloads. All other
// failures come from the database driver, wrapped with the operation that
// failed, and can be inspected with [errors.As].
//
// Each mutating operation is committed before it returns. The existence check
// and the statement that follows it are not atomic with respect to other
// writers; a Store assumes it is the only writer of its file.
//
// This package uses [database/sql] and does not import a driver. The consumer
// must import one, e.g. modernc.org/sqlite for the default
// [SQLite] dialect or github.com/duckdb/duckdb-go/v2 for [DuckDB].
package tablestore
