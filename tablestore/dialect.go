package tablestore

import (
	"fmt"
	"slices"
	"strings"
)

// Dialect holds the engine specific SQL used by a Store.
type Dialect struct {
	// Driver is the database/sql driver name passed to sql.Open. It may be
	// changed to use another driver for the same engine (e.g. "sqlite3" for
	// github.com/mattn/go-sqlite3).
	Driver string

	name         string
	tablesQuery  string
	columnsQuery string // one parameter: the table name
	types        map[ColumnType]string
	snapshot     string   // empty when unsupported
	rowIDs       []string // built-in row id names, in order of preference
}

// SQLite is the default dialect. Its driver name matches modernc.org/sqlite.
var SQLite = Dialect{
	Driver:       "sqlite",
	name:         "sqlite",
	tablesQuery:  "SELECT name FROM sqlite_master WHERE type='table'",
	columnsQuery: "SELECT name, type FROM pragma_table_info(?)",
	types: map[ColumnType]string{
		Untyped: "NULL",
		Integer: "INTEGER",
		Real:    "REAL",
		Text:    "TEXT",
	},
	snapshot: "VACUUM INTO ?",
	rowIDs:   []string{"rowid", "oid", "_rowid_"},
}

// DuckDB targets github.com/duckdb/duckdb-go/v2. DuckDB columns always carry
// a type, so Untyped columns are rejected.
var DuckDB = Dialect{
	Driver:       "duckdb",
	name:         "duckdb",
	tablesQuery:  "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'",
	columnsQuery: "SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ? ORDER BY ordinal_position",
	types: map[ColumnType]string{
		Integer: "BIGINT",
		Real:    "DOUBLE",
		Text:    "VARCHAR",
	},
	rowIDs: []string{"rowid"},
}

// ParseDialect returns the dialect with the given name ("sqlite" or "duckdb").
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", SQLite.name:
		return SQLite, nil
	case DuckDB.name:
		return DuckDB, nil
	default:
		return Dialect{}, fmt.Errorf("unknown dialect %q", name)
	}
}

func (d Dialect) String() string {
	return d.name
}

func (d Dialect) typeName(t ColumnType) (string, error) {
	name, ok := d.types[t]
	if !ok {
		return "", fmt.Errorf("%s has no %s column type", d.name, t)
	}
	return name, nil
}

// rowID returns the first built-in row id name that no column shadows.
func (d Dialect) rowID(cols []Column) (string, bool) {
	for _, id := range d.rowIDs {
		shadowed := slices.ContainsFunc(cols, func(c Column) bool {
			return strings.EqualFold(c.Name, id)
		})
		if !shadowed {
			return id, true
		}
	}
	return "", false
}
