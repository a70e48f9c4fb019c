package tablestore

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateTable creates the table if it does not exist. It is a no-op when a
// table with the same name already exists, whatever its columns.
func (s *Store) CreateTable(ctx context.Context, name string, columns []Column) error {
	query, err := createTableSQL(s.dialect, name, columns, true)
	if err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}
	if err := s.exec(ctx, query); err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}
	return nil
}

// RenameTable renames a table.
func (s *Store) RenameTable(ctx context.Context, from, to string) error {
	if err := s.requireTable(ctx, from); err != nil {
		return err
	}

	query := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteName(from), quoteName(to))
	if err := s.exec(ctx, query); err != nil {
		return fmt.Errorf("renaming table %s to %s: %w", from, to, err)
	}
	return nil
}

// DeleteTable drops a table.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	if err := s.requireTable(ctx, name); err != nil {
		return err
	}

	if err := s.exec(ctx, "DROP TABLE IF EXISTS "+quoteName(name)); err != nil {
		return fmt.Errorf("dropping table %s: %w", name, err)
	}
	return nil
}

// FetchAll returns every row of the table in the engine's natural order.
func (s *Store) FetchAll(ctx context.Context, name string) ([]Row, error) {
	if err := s.requireTable(ctx, name); err != nil {
		return nil, err
	}
	return s.Query(ctx, selectAllSQL(name))
}

// Columns returns the declared columns of the table in definition order.
func (s *Store) Columns(ctx context.Context, name string) ([]Column, error) {
	if err := s.requireTable(ctx, name); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.columnsQuery, name)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", name, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var colName, decl string
		if err := rows.Scan(&colName, &decl); err != nil {
			return nil, fmt.Errorf("reading columns of %s: %w", name, err)
		}
		cols = append(cols, Column{Name: colName, Type: declaredType(decl)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", name, err)
	}
	return cols, nil
}

// InsertRows appends rows to the table. Values are bound positionally, so
// each row must have one value per table column; the engine rejects rows of
// the wrong arity. All rows are inserted in one transaction.
func (s *Store) InsertRows(ctx context.Context, name string, rows []Row) error {
	if err := s.requireTable(ctx, name); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrEmptyInput
	}

	query := insertSQL(name, nil, len(rows[0]))
	s.log.DebugContext(ctx, "exec", "sql", query, "rows", len(rows))

	return s.inTx(ctx, func(tx *sql.Tx) error {
		cache := newStmtCache(tx)
		defer cache.close()

		for i, row := range rows {
			if _, err := cache.ExecContext(ctx, query, row...); err != nil {
				return fmt.Errorf("inserting row %d into %s: %w", i, name, err)
			}
		}
		return nil
	})
}

// Deduplicate removes duplicate rows (equal in every column) so that each
// distinct row remains exactly once. The first occurrence of each row is
// kept and the table is modified in place.
func (s *Store) Deduplicate(ctx context.Context, name string) error {
	cols, err := s.Columns(ctx, name)
	if err != nil {
		return err
	}

	if rowID, ok := s.dialect.rowID(cols); ok {
		if err := s.exec(ctx, dedupeSQL(name, cols, rowID)); err != nil {
			return fmt.Errorf("deduplicating %s: %w", name, err)
		}
		return nil
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		for _, query := range distinctCopySQL(name) {
			s.log.DebugContext(ctx, "exec", "sql", query)
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deduplicating %s: %w", name, err)
	}
	return nil
}
