//go:build duckdb

package tablestore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/andrewkroh/go-tablestore/tablestore"
)

func TestDuckDB(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.duckdb")

	err := tablestore.With(ctx, path, func(s *tablestore.Store) error {
		if err := s.CreateTable(ctx, "people", peopleColumns); err != nil {
			return err
		}
		err := s.InsertRows(ctx, "people", []tablestore.Row{
			{int64(1), "alice", 1.0},
			{int64(1), "alice", 1.0},
			{int64(2), "bob", nil},
		})
		if err != nil {
			return err
		}

		cols, err := s.Columns(ctx, "people")
		if err != nil {
			return err
		}
		if diff := cmp.Diff(peopleColumns, cols); diff != "" {
			t.Errorf("Columns mismatch (-want +got):\n%s", diff)
		}

		if err := s.Deduplicate(ctx, "people"); err != nil {
			return err
		}
		rows, err := s.Query(ctx, "SELECT * FROM people ORDER BY id")
		if err != nil {
			return err
		}
		want := []tablestore.Row{{int64(1), "alice", 1.0}, {int64(2), "bob", nil}}
		if diff := cmp.Diff(want, rows); diff != "" {
			t.Errorf("Deduplicate mismatch (-want +got):\n%s", diff)
		}

		if err := s.RenameTable(ctx, "people", "persons"); err != nil {
			return err
		}
		tables, err := s.Tables(ctx)
		if err != nil {
			return err
		}
		if diff := cmp.Diff([]string{"persons"}, tables); diff != "" {
			t.Errorf("Tables mismatch (-want +got):\n%s", diff)
		}

		if _, err := s.FetchAll(ctx, "people"); !errors.Is(err, tablestore.ErrTableNotFound) {
			t.Errorf("expected ErrTableNotFound, got %v", err)
		}
		return s.DeleteTable(ctx, "persons")
	}, tablestore.WithDialect(tablestore.DuckDB))
	if err != nil {
		t.Fatal(err)
	}
}

func TestDuckDBRejectsUntyped(t *testing.T) {
	ctx := context.Background()
	s, err := tablestore.Open(ctx, filepath.Join(t.TempDir(), "test.duckdb"), tablestore.WithDialect(tablestore.DuckDB))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.CreateTable(ctx, "t", []tablestore.Column{{Name: "v"}}); err == nil {
		t.Error("expected an error creating an untyped column")
	}
	if err := s.Snapshot(ctx, filepath.Join(t.TempDir(), "snap")); err == nil {
		t.Error("expected snapshot to be unsupported")
	}
}
