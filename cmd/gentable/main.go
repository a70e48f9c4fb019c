// Command gentable generates typed Go row structs from the tables of an
// existing database file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/andrewkroh/go-tablestore/internal/rowgen"
	"github.com/andrewkroh/go-tablestore/tablestore"
)

func main() {
	cfg := rowgen.Config{}
	var tables, dialect string

	flag.StringVar(&cfg.DBPath, "db", tablestore.DefaultPath, "Path to the database file")
	flag.StringVar(&dialect, "dialect", "sqlite", "Database engine (sqlite or duckdb)")
	flag.StringVar(&cfg.OutputFile, "output", "", "Output Go file (required)")
	flag.StringVar(&cfg.PackageName, "package", "tables", "Go package name for the generated file")
	flag.StringVar(&tables, "tables", "", "Comma separated tables to generate (default: all)")
	flag.Parse()

	if cfg.OutputFile == "" {
		fmt.Fprintln(os.Stderr, "error: -output flag is required")
		flag.Usage()
		os.Exit(1)
	}

	d, err := tablestore.ParseDialect(dialect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg.Dialect = d

	if tables != "" {
		for _, name := range strings.Split(tables, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Tables = append(cfg.Tables, name)
			}
		}
	}

	if err := rowgen.Run(context.Background(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
