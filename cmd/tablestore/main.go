// Command tablestore manages the tables of an embedded database file from
// the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/andrewkroh/go-tablestore/internal/logging"
	"github.com/andrewkroh/go-tablestore/tablestore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app holds the state shared by all subcommands.
type app struct {
	dbPath   string
	dialect  string
	logLevel string
	seqURL   string

	setupLogging func(w io.Writer, level, seqURL string) (*slog.Logger, func(), error)
	log          *slog.Logger
	cleanup      func()
}

func newApp() *app {
	return &app{
		setupLogging: logging.Setup,
		log:          slog.New(slog.DiscardHandler),
		cleanup:      func() {},
	}
}

// execute runs the command line. The log sinks are flushed whether or not
// the command succeeds.
func (a *app) execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	defer func() { a.cleanup() }()

	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tablestore",
		Short: "Manage tables in an embedded database file",
		Long: `A CLI tool to create, inspect, import, export, deduplicate and back up
the tables of a SQLite (or DuckDB) database file.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, cleanup, err := a.setupLogging(cmd.ErrOrStderr(), a.logLevel, a.seqURL)
			if err != nil {
				return err
			}
			a.log, a.cleanup = logger, cleanup
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.dbPath, "db", tablestore.DefaultPath, "database file")
	flags.StringVar(&a.dialect, "dialect", "sqlite", "database engine (sqlite or duckdb)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&a.seqURL, "seq-url", "", "also send logs to this Seq server")

	rootCmd.AddCommand(
		a.tablesCmd(),
		a.columnsCmd(),
		a.queryCmd(),
		a.fetchCmd(),
		a.applyCmd(),
		a.renameCmd(),
		a.dropCmd(),
		a.dedupCmd(),
		a.importCmd(),
		a.exportCmd(),
		a.backupCmd(),
		a.restoreCmd(),
	)
	return rootCmd
}

// withStore opens the database for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(*tablestore.Store) error) error {
	d, err := tablestore.ParseDialect(a.dialect)
	if err != nil {
		return err
	}
	return tablestore.With(ctx, a.dbPath, fn,
		tablestore.WithDialect(d),
		tablestore.WithLogger(a.log),
	)
}
