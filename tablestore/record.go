package tablestore

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// QueryRecord executes arbitrary SQL and returns the result as an Arrow
// record. Cell values match those returned by Query. The caller must Release
// the record.
func (s *Store) QueryRecord(ctx context.Context, query string, args ...any) (arrow.RecordBatch, error) {
	s.log.DebugContext(ctx, "query", "sql", query)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.readRecord(rows)
}

// FetchAllRecord returns every row of the table as an Arrow record. The
// caller must Release the record.
func (s *Store) FetchAllRecord(ctx context.Context, name string) (arrow.RecordBatch, error) {
	if err := s.requireTable(ctx, name); err != nil {
		return nil, err
	}
	return s.QueryRecord(ctx, selectAllSQL(name))
}

// CreateTableFromRecord creates the table from the record's schema and
// inserts all of its rows. An existing table with the same name is replaced.
//
// Fields are mapped to the closest column type, so reading the table back
// does not always reproduce the input schema. Booleans and narrower integers
// read back as int64 and float32 as float64. Types without a column
// counterpart, such as dates, read back as strings. Null fields create
// untyped columns that read back as null.
func (s *Store) CreateTableFromRecord(ctx context.Context, name string, rec arrow.RecordBatch) error {
	query, err := createTableSQL(s.dialect, name, columnsFromSchema(rec.Schema()), false)
	if err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		drop := "DROP TABLE IF EXISTS " + quoteName(name)
		s.log.DebugContext(ctx, "exec", "sql", drop)
		if _, err := tx.ExecContext(ctx, drop); err != nil {
			return fmt.Errorf("replacing table %s: %w", name, err)
		}

		s.log.DebugContext(ctx, "exec", "sql", query)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("creating table %s: %w", name, err)
		}

		return s.insertRecord(ctx, tx, name, rec)
	})
}

// InsertRecord appends the record's rows to the table. Values are bound to
// the table columns named by the record's fields.
func (s *Store) InsertRecord(ctx context.Context, name string, rec arrow.RecordBatch) error {
	if err := s.requireTable(ctx, name); err != nil {
		return err
	}
	if rec.NumRows() == 0 {
		return ErrEmptyInput
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.insertRecord(ctx, tx, name, rec)
	})
}

func (s *Store) insertRecord(ctx context.Context, tx *sql.Tx, name string, rec arrow.RecordBatch) error {
	ncols := int(rec.NumCols())
	if ncols == 0 {
		return nil
	}

	names := make([]string, ncols)
	for i := range names {
		names[i] = rec.ColumnName(i)
	}
	query := insertSQL(name, names, ncols)
	s.log.DebugContext(ctx, "exec", "sql", query, "rows", rec.NumRows())

	cache := newStmtCache(tx)
	defer cache.close()

	args := make([]any, ncols)
	for r := 0; r < int(rec.NumRows()); r++ {
		for c := range args {
			args[c] = cellValue(rec.Column(c), r)
		}
		if _, err := cache.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting row %d into %s: %w", r, name, err)
		}
	}
	return nil
}

// columnsFromSchema maps Arrow fields to declared column types. Binary, null
// and union fields become untyped columns. Types with no direct counterpart
// are stored as text using the array's string form.
func columnsFromSchema(schema *arrow.Schema) []Column {
	cols := make([]Column, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = Column{Name: f.Name, Type: columnTypeOf(f.Type)}
	}
	return cols
}

func columnTypeOf(dt arrow.DataType) ColumnType {
	switch dt.ID() {
	case arrow.BOOL,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return Integer
	case arrow.FLOAT32, arrow.FLOAT64:
		return Real
	case arrow.NULL, arrow.BINARY, arrow.LARGE_BINARY,
		arrow.DENSE_UNION, arrow.SPARSE_UNION:
		return Untyped
	default:
		return Text
	}
}

// cellValue returns the value at row i of arr as a database/sql argument.
func cellValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Null:
		return nil
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return bytes.Clone(a.Value(i))
	case *array.LargeBinary:
		return bytes.Clone(a.Value(i))
	case *array.DenseUnion:
		return cellValue(a.Field(a.ChildID(i)), int(a.ValueOffset(i)))
	case *array.SparseUnion:
		return cellValue(a.Field(a.ChildID(i)), i)
	default:
		return arr.ValueStr(i)
	}
}

// valueKind classifies scanned values so that a column's Arrow type can be
// inferred from its contents.
type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindInt
	kindFloat
	kindString
	kindBytes
	numKinds
)

// kindOf returns the kind of a normalized value. Values of other types are
// stored in string columns using formatValue.
func kindOf(v any) valueKind {
	switch v.(type) {
	case nil:
		return kindNull
	case bool:
		return kindBool
	case int64:
		return kindInt
	case float64:
		return kindFloat
	case []byte:
		return kindBytes
	default:
		return kindString
	}
}

func kindType(k valueKind) arrow.DataType {
	switch k {
	case kindBool:
		return arrow.FixedWidthTypes.Boolean
	case kindInt:
		return arrow.PrimitiveTypes.Int64
	case kindFloat:
		return arrow.PrimitiveTypes.Float64
	case kindBytes:
		return arrow.BinaryTypes.Binary
	case kindString:
		return arrow.BinaryTypes.String
	default:
		return arrow.Null
	}
}

// columnKinds returns the distinct kinds of the non-NULL values in column col
// and whether the column holds any NULL.
func columnKinds(data []Row, col int) (kinds []valueKind, hasNull bool) {
	var seen [numKinds]bool
	for _, row := range data {
		seen[kindOf(normalize(row[col]))] = true
	}
	for k := kindBool; k < numKinds; k++ {
		if seen[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds, seen[kindNull]
}

// inferType picks the Arrow type for column col. The scanned values decide;
// the declared type is used only when every value is NULL. A column holding
// values of more than one kind becomes a dense union with one child per kind,
// preceded by a null child when the column holds NULLs.
func inferType(decl string, data []Row, col int) arrow.DataType {
	kinds, hasNull := columnKinds(data, col)
	switch len(kinds) {
	case 0:
		switch declaredType(decl) {
		case Integer:
			return arrow.PrimitiveTypes.Int64
		case Real:
			return arrow.PrimitiveTypes.Float64
		case Text:
			return arrow.BinaryTypes.String
		default:
			return arrow.Null
		}
	case 1:
		return kindType(kinds[0])
	}

	var fields []arrow.Field
	if hasNull {
		fields = append(fields, arrow.Field{Name: arrow.Null.Name(), Type: arrow.Null, Nullable: true})
	}
	for _, k := range kinds {
		dt := kindType(k)
		fields = append(fields, arrow.Field{Name: dt.Name(), Type: dt, Nullable: true})
	}
	codes := make([]arrow.UnionTypeCode, len(fields))
	for i := range codes {
		codes[i] = arrow.UnionTypeCode(i)
	}
	return arrow.DenseUnionOf(fields, codes)
}

// normalize widens the integer and float types some drivers return to
// int64 and float64.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n)
		}
		return v
	case float32:
		return float64(n)
	default:
		return v
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

func appendValue(b array.Builder, v any) error {
	v = normalize(v)
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch b := b.(type) {
	case *array.NullBuilder:
		b.AppendNull()
		return nil
	case *array.StringBuilder:
		b.Append(formatValue(v))
		return nil
	case *array.Int64Builder:
		if n, ok := v.(int64); ok {
			b.Append(n)
			return nil
		}
	case *array.Float64Builder:
		switch n := v.(type) {
		case float64:
			b.Append(n)
			return nil
		case int64:
			b.Append(float64(n))
			return nil
		}
	case *array.BooleanBuilder:
		if x, ok := v.(bool); ok {
			b.Append(x)
			return nil
		}
	case *array.BinaryBuilder:
		if x, ok := v.([]byte); ok {
			b.Append(x)
			return nil
		}
	case *array.DenseUnionBuilder:
		dt := b.Type().(*arrow.DenseUnionType)
		want := kindType(kindOf(v)).ID()
		for i, f := range dt.Fields() {
			if f.Type.ID() == want {
				b.Append(dt.TypeCodes()[i])
				return appendValue(b.Child(i), v)
			}
		}
	}
	return fmt.Errorf("unexpected %T value for %T", v, b)
}

// readRecord scans all rows and builds a record with one nullable field per
// result column.
func (s *Store) readRecord(rows *sql.Rows) (arrow.RecordBatch, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	data, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, len(colTypes))
	for i, ct := range colTypes {
		fields[i] = arrow.Field{
			Name:     ct.Name(),
			Type:     inferType(ct.DatabaseTypeName(), data, i),
			Nullable: true,
		}
	}

	b := array.NewRecordBuilder(s.mem, arrow.NewSchema(fields, nil))
	defer b.Release()

	for _, row := range data {
		for i, v := range row {
			if err := appendValue(b.Field(i), v); err != nil {
				return nil, fmt.Errorf("column %q: %w", fields[i].Name, err)
			}
		}
	}
	return b.NewRecordBatch(), nil
}
