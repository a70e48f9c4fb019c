// Package rowgen generates typed Go row structs for the tables of a store.
//
// For every table it emits a table name constant, a struct with one pointer
// field per column, a Row method returning the values in column order, and a
// FromRow function converting a fetched row back into the struct.
package rowgen

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/andrewkroh/go-tablestore/tablestore"
)

const tablestorePkg = "github.com/andrewkroh/go-tablestore/tablestore"

// Config holds all configuration for a generator run.
type Config struct {
	DBPath      string             // Database file to read the catalog from
	Dialect     tablestore.Dialect // Engine of the database file; zero means SQLite
	Tables      []string           // Tables to generate; empty means all
	OutputFile  string             // Go file to write
	PackageName string             // Go package name
}

// Table is a table name with its declared columns.
type Table struct {
	Name    string
	Columns []tablestore.Column
}

// Run reads the table definitions from an existing database file and writes
// the generated Go file.
func Run(ctx context.Context, cfg Config) error {
	// Opening a missing file would create an empty database.
	if cfg.DBPath != ":memory:" {
		if _, err := os.Stat(cfg.DBPath); err != nil {
			return fmt.Errorf("reading database: %w", err)
		}
	}

	var opts []tablestore.Option
	if cfg.Dialect.Driver != "" {
		opts = append(opts, tablestore.WithDialect(cfg.Dialect))
	}

	var tables []Table
	err := tablestore.With(ctx, cfg.DBPath, func(s *tablestore.Store) error {
		var err error
		tables, err = LoadTables(ctx, s, cfg.Tables)
		return err
	}, opts...)
	if err != nil {
		return fmt.Errorf("loading tables: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", cfg.OutputFile, err)
	}
	if err := Render(f, cfg.PackageName, tables); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", cfg.OutputFile, err)
	}
	return f.Close()
}

// LoadTables reads the columns of the named tables. When names is empty all
// user tables are loaded in catalog order; SQLite internal tables are skipped.
func LoadTables(ctx context.Context, s *tablestore.Store, names []string) ([]Table, error) {
	if len(names) == 0 {
		all, err := s.Tables(ctx)
		if err != nil {
			return nil, err
		}
		for _, name := range all {
			if !strings.HasPrefix(name, "sqlite_") {
				names = append(names, name)
			}
		}
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		cols, err := s.Columns(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, Table{Name: name, Columns: cols})
	}
	return tables, nil
}

// Render generates the Go source for tables and writes it to w.
func Render(w io.Writer, pkgName string, tables []Table) error {
	f, err := Generate(pkgName, tables)
	if err != nil {
		return err
	}
	return f.Render(w)
}

// Generate builds the Go file for tables.
func Generate(pkgName string, tables []Table) (*jen.File, error) {
	if pkgName == "" {
		pkgName = "tables"
	}

	f := jen.NewFile(pkgName)
	f.HeaderComment("Code generated by gentable. DO NOT EDIT.")
	f.ImportName(tablestorePkg, "tablestore")

	declared := make(map[string]string) // Go identifier → table name
	for _, t := range tables {
		typeName := ToGoName(t.Name)
		for _, id := range []string{typeName, typeName + "Table", typeName + "FromRow"} {
			if other, ok := declared[id]; ok {
				return nil, fmt.Errorf("identifier %s of table %q conflicts with table %q", id, t.Name, other)
			}
			declared[id] = t.Name
		}

		emitTable(f, typeName, t)
	}
	return f, nil
}

// field is a struct field generated for one column.
type field struct {
	name   string
	column tablestore.Column
}

// fieldNames assigns unique Go field names to the columns. Names that clash
// with an earlier field or with the Row method get a numeric suffix.
func fieldNames(cols []tablestore.Column) []field {
	used := map[string]bool{"Row": true}
	fields := make([]field, len(cols))
	for i, c := range cols {
		name := ToGoName(c.Name)
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s%d", ToGoName(c.Name), n)
		}
		used[name] = true
		fields[i] = field{name: name, column: c}
	}
	return fields
}

func fieldType(t tablestore.ColumnType) *jen.Statement {
	switch t {
	case tablestore.Integer:
		return jen.Op("*").Int64()
	case tablestore.Real:
		return jen.Op("*").Float64()
	case tablestore.Text:
		return jen.Op("*").String()
	default:
		return jen.Interface()
	}
}

func emitTable(f *jen.File, typeName string, t Table) {
	fields := fieldNames(t.Columns)

	f.Commentf("%sTable is the name of the %s table.", typeName, t.Name)
	f.Const().Id(typeName + "Table").Op("=").Lit(t.Name)
	f.Line()

	structFields := make([]jen.Code, len(fields))
	for i, fd := range fields {
		structFields[i] = jen.Id(fd.name).Add(fieldType(fd.column.Type)).Tag(map[string]string{"db": fd.column.Name})
	}
	f.Commentf("%s is a row of the %s table.", typeName, t.Name)
	f.Type().Id(typeName).Struct(structFields...)
	f.Line()

	values := make([]jen.Code, len(fields))
	for i, fd := range fields {
		values[i] = jen.Id("r").Dot(fd.name)
	}
	f.Comment("Row returns the values of r in column order.")
	f.Func().Params(jen.Id("r").Id(typeName)).Id("Row").Params().Qual(tablestorePkg, "Row").Block(
		jen.Return(jen.Qual(tablestorePkg, "Row").Values(values...)),
	)
	f.Line()

	body := []jen.Code{
		jen.Var().Id("r").Id(typeName),
		jen.If(jen.Len(jen.Id("row")).Op("!=").Lit(len(fields))).Block(
			jen.Return(jen.Id("r"), jen.Qual("fmt", "Errorf").Call(
				jen.Lit(escapeVerbs(t.Name)+": expected %d values, got %d"), jen.Lit(len(fields)), jen.Len(jen.Id("row")))),
		),
	}
	for i, fd := range fields {
		body = append(body, convertValue(t.Name, i, fd))
	}
	body = append(body, jen.Return(jen.Id("r"), jen.Nil()))

	f.Commentf("%sFromRow converts a row fetched from the %s table.", typeName, t.Name)
	f.Func().Id(typeName+"FromRow").Params(jen.Id("row").Qual(tablestorePkg, "Row")).Params(jen.Id(typeName), jen.Error()).Block(body...)
}

// convertValue emits the statement assigning row[i] to the field.
func convertValue(table string, i int, fd field) jen.Code {
	target := jen.Id("r").Dot(fd.name)
	value := jen.Id("row").Index(jen.Lit(i))

	var cases []jen.Code
	switch fd.column.Type {
	case tablestore.Integer:
		cases = []jen.Code{
			jen.Case(jen.Int64()).Block(target.Clone().Op("=").Op("&").Id("v")),
		}
	case tablestore.Real:
		cases = []jen.Code{
			jen.Case(jen.Float64()).Block(target.Clone().Op("=").Op("&").Id("v")),
			jen.Case(jen.Int64()).Block(
				jen.Id("x").Op(":=").Float64().Call(jen.Id("v")),
				target.Clone().Op("=").Op("&").Id("x"),
			),
		}
	case tablestore.Text:
		cases = []jen.Code{
			jen.Case(jen.String()).Block(target.Clone().Op("=").Op("&").Id("v")),
			jen.Case(jen.Index().Byte()).Block(
				jen.Id("x").Op(":=").String().Call(jen.Id("v")),
				target.Clone().Op("=").Op("&").Id("x"),
			),
		}
	default:
		return target.Op("=").Add(value)
	}

	cases = slices.Insert(cases, 0, jen.Code(jen.Case(jen.Nil()).Block()))
	cases = append(cases, jen.Default().Block(
		jen.Return(jen.Id("r"), jen.Qual("fmt", "Errorf").Call(
			jen.Lit(escapeVerbs(table+"."+fd.column.Name)+": unexpected value type %T"), jen.Id("v"))),
	))
	return jen.Switch(jen.Id("v").Op(":=").Add(value).Assert(jen.Type())).Block(cases...)
}

func escapeVerbs(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
