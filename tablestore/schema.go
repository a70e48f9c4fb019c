package tablestore

import (
	"fmt"
	"strings"
)

// ColumnType is the declared type of a column.
type ColumnType int

const (
	Untyped ColumnType = iota // no declared type (NULL)
	Integer
	Real
	Text
)

func (t ColumnType) String() string {
	switch t {
	case Untyped:
		return "NULL"
	case Integer:
		return "INTEGER"
	case Real:
		return "REAL"
	case Text:
		return "TEXT"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// ParseColumnType converts a type name to a ColumnType. It accepts the SQL
// names (integer, real, text, null) as well as the short forms int, float,
// str, string and none. An empty string is Untyped.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "none":
		return Untyped, nil
	case "integer", "int":
		return Integer, nil
	case "real", "float":
		return Real, nil
	case "text", "str", "string":
		return Text, nil
	default:
		return Untyped, fmt.Errorf("unknown column type %q", s)
	}
}

// declaredType maps a declared SQL type to a ColumnType following SQLite's
// column affinity rules.
func declaredType(decl string) ColumnType {
	d := strings.ToUpper(decl)
	switch {
	case d == "" || d == "NULL":
		return Untyped
	case strings.Contains(d, "INT"):
		return Integer
	case strings.Contains(d, "CHAR"), strings.Contains(d, "CLOB"), strings.Contains(d, "TEXT"):
		return Text
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return Real
	default:
		return Untyped
	}
}

// Column is a column name with its declared type.
type Column struct {
	Name    string
	Type    ColumnType
	Comment string // emitted as an inline comment inside CREATE TABLE
}

// sqliteReservedWords contains SQL keywords that must be quoted when used
// as table or column names.
var sqliteReservedWords = map[string]bool{
	"abort": true, "action": true, "add": true, "after": true, "all": true,
	"alter": true, "analyze": true, "and": true, "as": true, "asc": true,
	"attach": true, "autoincrement": true, "before": true, "begin": true,
	"between": true, "by": true, "cascade": true, "case": true, "cast": true,
	"check": true, "collate": true, "column": true, "commit": true,
	"conflict": true, "constraint": true, "create": true, "cross": true,
	"current": true, "current_date": true, "current_time": true,
	"current_timestamp": true, "database": true, "default": true,
	"deferrable": true, "deferred": true, "delete": true, "desc": true,
	"detach": true, "distinct": true, "do": true, "drop": true, "each": true,
	"else": true, "end": true, "escape": true, "except": true, "exclude": true,
	"exclusive": true, "exists": true, "explain": true, "fail": true,
	"filter": true, "first": true, "following": true, "for": true,
	"foreign": true, "from": true, "full": true, "glob": true, "group": true,
	"groups": true, "having": true, "if": true, "ignore": true,
	"immediate": true, "in": true, "index": true, "indexed": true,
	"initially": true, "inner": true, "insert": true, "instead": true,
	"intersect": true, "into": true, "is": true, "isnull": true, "join": true,
	"key": true, "last": true, "left": true, "like": true, "limit": true,
	"match": true, "natural": true, "no": true, "not": true, "nothing": true,
	"notnull": true, "null": true, "nulls": true, "of": true, "offset": true,
	"on": true, "or": true, "order": true, "others": true, "outer": true,
	"over": true, "partition": true, "plan": true, "pragma": true,
	"preceding": true, "primary": true, "query": true, "raise": true,
	"range": true, "recursive": true, "references": true, "regexp": true,
	"reindex": true, "release": true, "rename": true, "replace": true,
	"restrict": true, "right": true, "rollback": true, "row": true,
	"rows": true, "savepoint": true, "select": true, "set": true,
	"table": true, "temp": true, "temporary": true, "then": true, "ties": true,
	"to": true, "transaction": true, "trigger": true, "unbounded": true,
	"union": true, "unique": true, "update": true, "using": true,
	"vacuum": true, "values": true, "view": true, "virtual": true,
	"when": true, "where": true, "window": true, "with": true, "without": true,
}

// quoteName returns the identifier quoted with double quotes if it is a
// reserved SQL word or is not a plain identifier, otherwise returns it
// unchanged.
func quoteName(name string) string {
	if sqliteReservedWords[strings.ToLower(name)] || !isPlainIdentifier(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

func isPlainIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// createTableSQL builds the CREATE TABLE statement for the given columns.
// Column comments are placed inside the body so that they are preserved in
// the catalog.
func createTableSQL(d Dialect, table string, columns []Column, ifNotExists bool) (string, error) {
	var b strings.Builder

	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(quoteName(table))
	b.WriteString(" (\n")

	for i, col := range columns {
		typ, err := d.typeName(col.Type)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", col.Name, err)
		}

		b.WriteString("  ")
		b.WriteString(quoteName(col.Name))
		b.WriteString(" ")
		b.WriteString(typ)

		// Trailing comma unless last column.
		if i < len(columns)-1 {
			b.WriteString(",")
		}

		if col.Comment != "" {
			b.WriteString(" -- ")
			b.WriteString(strings.ReplaceAll(col.Comment, "\n", " "))
		}

		b.WriteString("\n")
	}

	b.WriteString(")")
	return b.String(), nil
}

// insertSQL builds a positional INSERT with n placeholders. When columns is
// not empty the values are bound to the named columns.
func insertSQL(table string, columns []string, n int) string {
	var b strings.Builder

	b.WriteString("INSERT INTO ")
	b.WriteString(quoteName(table))

	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = quoteName(c)
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(")")
	}

	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	b.WriteString(" VALUES (")
	b.WriteString(strings.Join(placeholders, ", "))
	b.WriteString(")")

	return b.String()
}

func selectAllSQL(table string) string {
	return "SELECT * FROM " + quoteName(table)
}

// dedupeSQL deletes every row whose values duplicate an earlier row, keeping
// the first occurrence. rowID is the engine's built-in row id column.
func dedupeSQL(table string, columns []Column, rowID string) string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = quoteName(c.Name)
	}
	t := quoteName(table)
	return fmt.Sprintf("DELETE FROM %s WHERE %s NOT IN (SELECT MIN(%s) FROM %s GROUP BY %s)",
		t, rowID, rowID, t, strings.Join(names, ", "))
}

// distinctCopySQL rebuilds the table from a distinct copy of its rows. It is
// used when every row id name is shadowed by a column.
func distinctCopySQL(table string) []string {
	t := quoteName(table)
	tmp := quoteName(table + "_distinct")
	return []string{
		"CREATE TEMP TABLE " + tmp + " AS SELECT DISTINCT * FROM " + t,
		"DELETE FROM " + t,
		"INSERT INTO " + t + " SELECT * FROM " + tmp,
		"DROP TABLE " + tmp,
	}
}
