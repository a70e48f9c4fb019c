package tablestore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/go-cmp/cmp"

	"github.com/andrewkroh/go-tablestore/tablestore"
)

func peopleRecord(mem memory.Allocator) arrow.RecordBatch {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"alice", "", "carol"}, []bool{true, false, true})
	b.Field(2).(*array.Float64Builder).AppendValues([]float64{9.5, 8, 0}, []bool{true, true, false})

	return b.NewRecordBatch()
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRecordRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := openTestStore(t, tablestore.WithAllocator(mem))
	ctx := context.Background()

	in := peopleRecord(mem)
	defer in.Release()

	if err := s.CreateTableFromRecord(ctx, "people", in); err != nil {
		t.Fatal(err)
	}

	out, err := s.FetchAllRecord(ctx, "people")
	if err != nil {
		t.Fatal(err)
	}
	defer out.Release()

	if !array.RecordEqual(in, out) {
		t.Errorf("round trip mismatch:\nin:  %v\nout: %v", in, out)
	}

	cols, err := s.Columns(ctx, "people")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(peopleColumns, cols); diff != "" {
		t.Errorf("Columns mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateTableFromRecordReplaces(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := openTestStore(t, tablestore.WithAllocator(mem))
	ctx := context.Background()

	if err := s.CreateTable(ctx, "people", []tablestore.Column{{Name: "old", Type: tablestore.Text}}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertRows(ctx, "people", []tablestore.Row{{"stale"}}); err != nil {
		t.Fatal(err)
	}

	rec := peopleRecord(mem)
	defer rec.Release()

	if err := s.CreateTableFromRecord(ctx, "people", rec); err != nil {
		t.Fatal(err)
	}

	rows, err := s.FetchAll(ctx, "people")
	if err != nil {
		t.Fatal(err)
	}
	want := []tablestore.Row{
		{int64(1), "alice", 9.5},
		{int64(2), nil, 8.0},
		{int64(3), "carol", nil},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("FetchAll mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateTableFromRecordTypeMapping(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := openTestStore(t, tablestore.WithAllocator(mem))
	ctx := context.Background()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "flag", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
		{Name: "small", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: "ratio", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
		{Name: "blob", Type: arrow.BinaryTypes.Binary, Nullable: true},
		{Name: "day", Type: arrow.FixedWidthTypes.Date32, Nullable: true},
		{Name: "nothing", Type: arrow.Null, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.BooleanBuilder).Append(true)
	b.Field(1).(*array.Int32Builder).Append(7)
	b.Field(2).(*array.Float32Builder).Append(0.5)
	b.Field(3).(*array.BinaryBuilder).Append([]byte{0x01, 0x02})
	b.Field(4).(*array.Date32Builder).Append(arrow.Date32FromTime(mustDate(t, "2024-03-01")))
	b.Field(5).(*array.NullBuilder).AppendNull()
	rec := b.NewRecordBatch()
	defer rec.Release()

	if err := s.CreateTableFromRecord(ctx, "mixed", rec); err != nil {
		t.Fatal(err)
	}

	cols, err := s.Columns(ctx, "mixed")
	if err != nil {
		t.Fatal(err)
	}
	wantCols := []tablestore.Column{
		{Name: "flag", Type: tablestore.Integer},
		{Name: "small", Type: tablestore.Integer},
		{Name: "ratio", Type: tablestore.Real},
		{Name: "blob", Type: tablestore.Untyped},
		{Name: "day", Type: tablestore.Text},
		{Name: "nothing", Type: tablestore.Untyped},
	}
	if diff := cmp.Diff(wantCols, cols); diff != "" {
		t.Errorf("Columns mismatch (-want +got):\n%s", diff)
	}

	rows, err := s.FetchAll(ctx, "mixed")
	if err != nil {
		t.Fatal(err)
	}
	want := []tablestore.Row{{int64(1), int64(7), 0.5, []byte{0x01, 0x02}, "2024-03-01", nil}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("FetchAll mismatch (-want +got):\n%s", diff)
	}

	out, err := s.FetchAllRecord(ctx, "mixed")
	if err != nil {
		t.Fatal(err)
	}
	defer out.Release()

	var gotTypes []arrow.Type
	for _, f := range out.Schema().Fields() {
		gotTypes = append(gotTypes, f.Type.ID())
	}
	wantTypes := []arrow.Type{arrow.INT64, arrow.INT64, arrow.FLOAT64, arrow.BINARY, arrow.STRING, arrow.NULL}
	if diff := cmp.Diff(wantTypes, gotTypes); diff != "" {
		t.Errorf("read back types mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertRecordByName(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := openTestStore(t, tablestore.WithAllocator(mem))
	ctx := context.Background()

	createPeople(t, s, tablestore.Row{int64(1), "alice", 1.0})

	// Fields are bound by name, not by position.
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "name", Type: arrow.BinaryTypes.String},
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).Append("bob")
	b.Field(1).(*array.Int64Builder).Append(2)
	rec := b.NewRecordBatch()
	defer rec.Release()

	if err := s.InsertRecord(ctx, "people", rec); err != nil {
		t.Fatal(err)
	}

	rows, err := s.FetchAll(ctx, "people")
	if err != nil {
		t.Fatal(err)
	}
	want := []tablestore.Row{
		{int64(1), "alice", 1.0},
		{int64(2), "bob", nil},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("FetchAll mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertRecordEmpty(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := openTestStore(t, tablestore.WithAllocator(mem))
	ctx := context.Background()

	createPeople(t, s)

	rec := peopleRecord(mem)
	defer rec.Release()
	empty := rec.NewSlice(0, 0)
	defer empty.Release()

	if err := s.InsertRecord(ctx, "people", empty); !errors.Is(err, tablestore.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

// recordRows converts rec back into rows, resolving union cells to the value
// held by their child.
func recordRows(t *testing.T, rec arrow.RecordBatch) []tablestore.Row {
	t.Helper()

	var cell func(arr arrow.Array, i int) any
	cell = func(arr arrow.Array, i int) any {
		switch a := arr.(type) {
		case *array.DenseUnion:
			return cell(a.Field(a.ChildID(i)), int(a.ValueOffset(i)))
		case *array.Null:
			return nil
		}
		if arr.IsNull(i) {
			return nil
		}
		switch a := arr.(type) {
		case *array.Boolean:
			return a.Value(i)
		case *array.Int64:
			return a.Value(i)
		case *array.Float64:
			return a.Value(i)
		case *array.String:
			return a.Value(i)
		case *array.Binary:
			return a.Value(i)
		}
		t.Fatalf("unexpected array type %v", arr.DataType())
		return nil
	}

	var rows []tablestore.Row
	for r := 0; r < int(rec.NumRows()); r++ {
		row := make(tablestore.Row, rec.NumCols())
		for c, col := range rec.Columns() {
			row[c] = cell(col, r)
		}
		rows = append(rows, row)
	}
	return rows
}

func TestQueryRecordInference(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := openTestStore(t, tablestore.WithAllocator(mem))
	ctx := context.Background()

	if err := s.CreateTable(ctx, "loose", []tablestore.Column{
		{Name: "text"},
		{Name: "num"},
		{Name: "nothing", Type: tablestore.Integer},
	}); err != nil {
		t.Fatal(err)
	}
	err := s.InsertRows(ctx, "loose", []tablestore.Row{
		{"one", 1.5, nil},
		{"two", 2.5, nil},
		{nil, nil, nil},
	})
	if err != nil {
		t.Fatal(err)
	}

	rec, err := s.QueryRecord(ctx, "SELECT * FROM loose")
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	gotTypes := make([]arrow.Type, rec.NumCols())
	for i, f := range rec.Schema().Fields() {
		gotTypes[i] = f.Type.ID()
	}
	wantTypes := []arrow.Type{arrow.STRING, arrow.FLOAT64, arrow.INT64}
	if diff := cmp.Diff(wantTypes, gotTypes); diff != "" {
		t.Errorf("inferred types mismatch (-want +got):\n%s", diff)
	}

	text := rec.Column(0).(*array.String)
	if text.Value(0) != "one" || text.Value(1) != "two" || !text.IsNull(2) {
		t.Errorf("unexpected text column: %v", text)
	}
	num := rec.Column(1).(*array.Float64)
	if num.Value(0) != 1.5 || num.Value(1) != 2.5 || !num.IsNull(2) {
		t.Errorf("unexpected num column: %v", num)
	}
	if n := rec.Column(2).NullN(); n != 3 {
		t.Errorf("expected 3 nulls, got %d", n)
	}
}

func TestQueryRecordMixedColumn(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := openTestStore(t, tablestore.WithAllocator(mem))
	ctx := context.Background()

	if err := s.CreateTable(ctx, "loose", []tablestore.Column{
		{Name: "id", Type: tablestore.Integer},
		{Name: "v"},
	}); err != nil {
		t.Fatal(err)
	}
	err := s.InsertRows(ctx, "loose", []tablestore.Row{
		{int64(1), int64(1)},
		{int64(2), "two"},
		{int64(3), nil},
		{int64(4), 2.5},
		{int64(5), []byte{0x01}},
	})
	if err != nil {
		t.Fatal(err)
	}

	const query = "SELECT * FROM loose ORDER BY id"
	want, err := s.Query(ctx, query)
	if err != nil {
		t.Fatal(err)
	}

	rec, err := s.QueryRecord(ctx, query)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	if got := rec.Schema().Field(1).Type.ID(); got != arrow.DENSE_UNION {
		t.Errorf("expected a dense union for the mixed column, got %v", got)
	}
	if diff := cmp.Diff(want, recordRows(t, rec)); diff != "" {
		t.Errorf("QueryRecord content differs from Query (-want +got):\n%s", diff)
	}

	// Writing the record back keeps each value's type.
	if err := s.CreateTableFromRecord(ctx, "copy", rec); err != nil {
		t.Fatal(err)
	}
	got, err := s.Query(ctx, "SELECT * FROM copy ORDER BY id")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("copied rows mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryRecordEmptyResult(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := openTestStore(t, tablestore.WithAllocator(mem))
	ctx := context.Background()

	createPeople(t, s)

	rec, err := s.FetchAllRecord(ctx, "people")
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	if rec.NumRows() != 0 {
		t.Errorf("expected no rows, got %d", rec.NumRows())
	}
	want := []string{"id", "name", "score"}
	var got []string
	for _, f := range rec.Schema().Fields() {
		got = append(got, f.Name)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("field names mismatch (-want +got):\n%s", diff)
	}
	if rec.Schema().Field(0).Type.ID() != arrow.INT64 {
		t.Errorf("declared type not used for empty column: %v", rec.Schema().Field(0).Type)
	}
}
