// Command dedupe loads a CSV file into a table, removes duplicate rows and
// prints the distinct rows. The table is replaced on every run.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/apache/arrow-go/v18/arrow/csv"
	_ "modernc.org/sqlite"

	"github.com/andrewkroh/go-tablestore/tablestore"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <database> <file.csv>\n", os.Args[0])
		os.Exit(1)
	}

	f, err := os.Open(os.Args[2])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	r := csv.NewInferringReader(f, csv.WithHeader(true), csv.WithChunk(-1))
	defer r.Release()
	if !r.Next() {
		log.Fatalf("%s: no rows", os.Args[2])
	}

	ctx := context.Background()
	err = tablestore.With(ctx, os.Args[1], func(s *tablestore.Store) error {
		if err := s.CreateTableFromRecord(ctx, "data", r.RecordBatch()); err != nil {
			return err
		}
		if err := s.Deduplicate(ctx, "data"); err != nil {
			return err
		}

		rows, err := s.FetchAll(ctx, "data")
		if err != nil {
			return err
		}
		for _, row := range rows {
			fmt.Println(row...)
		}
		fmt.Printf("%d distinct rows in %s\n", len(rows), s.Path())
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
}
