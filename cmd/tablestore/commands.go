package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"

	"github.com/andrewkroh/go-tablestore/internal/remote"
	"github.com/andrewkroh/go-tablestore/internal/tableconfig"
	"github.com/andrewkroh/go-tablestore/tablestore"
)

func (a *app) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *tablestore.Store) error {
				tables, err := s.Tables(cmd.Context())
				if err != nil {
					return err
				}
				for _, name := range tables {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

func (a *app) columnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns TABLE",
		Short: "Show the declared columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *tablestore.Store) error {
				cols, err := s.Columns(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				t := newTable(cmd.OutOrStdout())
				t.Header([]string{"name", "type"})
				for _, c := range cols {
					t.Row([]string{c.Name, c.Type.String()})
				}
				t.Render()
				return nil
			})
		},
	}
}

func (a *app) queryCmd() *cobra.Command {
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run a SQL statement and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *tablestore.Store) error {
				rec, err := s.QueryRecord(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				defer rec.Release()

				if asCSV {
					return writeCSV(cmd.OutOrStdout(), memory.DefaultAllocator, rec)
				}
				renderRecord(cmd.OutOrStdout(), rec)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "print CSV instead of a table")
	return cmd
}

func (a *app) fetchCmd() *cobra.Command {
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "fetch TABLE",
		Short: "Print every row of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *tablestore.Store) error {
				rec, err := s.FetchAllRecord(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				defer rec.Release()

				if asCSV {
					return writeCSV(cmd.OutOrStdout(), memory.DefaultAllocator, rec)
				}
				renderRecord(cmd.OutOrStdout(), rec)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "print CSV instead of a table")
	return cmd
}

func (a *app) applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply FILE",
		Short: "Create the tables defined in a YAML file",
		Long: `Create every table defined in a YAML tables file. Tables that already
exist are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := tableconfig.LoadConfig(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *tablestore.Store) error {
				if err := tableconfig.Apply(cmd.Context(), s, cfg); err != nil {
					return err
				}
				a.log.Info("applied table definitions", "file", args[0], "tables", len(cfg.Tables))
				return nil
			})
		},
	}
}

func (a *app) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename FROM TO",
		Short: "Rename a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *tablestore.Store) error {
				return s.RenameTable(cmd.Context(), args[0], args[1])
			})
		},
	}
}

func (a *app) dropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop TABLE",
		Short: "Delete a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *tablestore.Store) error {
				return s.DeleteTable(cmd.Context(), args[0])
			})
		},
	}
}

func (a *app) dedupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedup TABLE",
		Short: "Remove duplicate rows from a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *tablestore.Store) error {
				return s.Deduplicate(cmd.Context(), args[0])
			})
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import TABLE FILE",
		Short: "Append the rows of a CSV file to a table",
		Long: `Append the rows of a CSV file with a header line to an existing table.
Columns are matched by name. With --replace the table is (re)created from the
column types inferred from the file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, file := args[0], args[1]

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			r := csv.NewInferringReader(f, csv.WithHeader(true), csv.WithChunk(-1))
			defer r.Release()

			if !r.Next() {
				if err := r.Err(); err != nil {
					return fmt.Errorf("reading %s: %w", file, err)
				}
			}
			rec := r.RecordBatch()
			if rec == nil || rec.NumRows() == 0 {
				return fmt.Errorf("%s: %w", file, tablestore.ErrEmptyInput)
			}

			return a.withStore(cmd.Context(), func(s *tablestore.Store) error {
				if replace {
					return s.CreateTableFromRecord(cmd.Context(), table, rec)
				}
				return s.InsertRecord(cmd.Context(), table, rec)
			})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the table with the file contents")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export TABLE",
		Short: "Write the rows of a table as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}

			return a.withStore(cmd.Context(), func(s *tablestore.Store) error {
				rec, err := s.FetchAllRecord(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				defer rec.Release()
				return writeCSV(w, memory.DefaultAllocator, rec)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func addS3Flags(cmd *cobra.Command, cfg *remote.S3Config) {
	flags := cmd.Flags()
	flags.StringVar(&cfg.Region, "s3-region", "", "S3 region")
	flags.StringVar(&cfg.Endpoint, "s3-endpoint", "", "custom S3-compatible endpoint")
	flags.StringVar(&cfg.AccessKey, "s3-access-key", "", "S3 access key")
	flags.StringVar(&cfg.SecretKey, "s3-secret-key", "", "S3 secret key")
}

func (a *app) backupCmd() *cobra.Command {
	var s3cfg remote.S3Config
	cmd := &cobra.Command{
		Use:   "backup DEST",
		Short: "Copy a consistent snapshot of the database to a path or s3:// URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.MkdirTemp("", "tablestore-backup-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)

			snapshot := filepath.Join(dir, "snapshot.db")
			err = a.withStore(cmd.Context(), func(s *tablestore.Store) error {
				return s.Snapshot(cmd.Context(), snapshot)
			})
			if err != nil {
				return err
			}

			if err := remote.Copy(cmd.Context(), snapshot, args[0], s3cfg); err != nil {
				return err
			}
			a.log.Info("backup written", "db", a.dbPath, "dest", args[0])
			return nil
		},
	}
	addS3Flags(cmd, &s3cfg)
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	var s3cfg remote.S3Config
	cmd := &cobra.Command{
		Use:   "restore SRC",
		Short: "Replace the database file with a copy from a path, URL or s3:// URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := a.dbPath
			if dst == "" {
				dst = tablestore.DefaultPath
			}
			if !remote.IsLocal(dst) {
				return errors.New("--db must be a local path")
			}

			if err := remote.Copy(cmd.Context(), args[0], dst, s3cfg); err != nil {
				return err
			}
			a.log.Info("database restored", "db", dst, "src", args[0])
			return nil
		},
	}
	addS3Flags(cmd, &s3cfg)
	return cmd
}
