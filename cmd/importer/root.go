package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/store"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	stdout io.Writer
	stderr io.Writer

	envFile  string
	driver   string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger

	// openStore is replaced in tests.
	openStore func(ctx context.Context, cfg config.DatabaseConfig) (store.Backend, error)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	return newApp(stdout, stderr).rootCommand()
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:    stdout,
		stderr:    stderr,
		openStore: store.Open,
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "importer",
		Short: "Load catalog TSV exports into the store",
		Long: `
Loads title.basics, name.basics, title.akas and title.principals exports
into the configured store. Settings come from the environment and an
optional .env file, as for the server.
`,
		SilenceUsage:      true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error { return a.setup() },
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file to load if present")
	flags.StringVar(&a.driver, "driver", "", "store driver, overrides DB_DRIVER (postgres, sqlite, memory)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level, overrides LOG_LEVEL")

	root.AddCommand(
		a.importCommand(),
		a.seedGenresCommand(),
		a.initSchemaCommand(),
	)
	return root
}

// setup loads the env file and configuration with flag overrides applied.
func (a *app) setup() error {
	if a.envFile != "" {
		if err := godotenv.Overload(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	overrides := map[string]string{
		"DB_DRIVER": a.driver,
		"LOG_LEVEL": a.logLevel,
	}
	cfg, err := config.LoadFrom(func(key string) string {
		if v := overrides[key]; v != "" {
			return v
		}
		return os.Getenv(key)
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.New(a.stderr, cfg.Logging.Level, cfg.Logging.Format)
	return nil
}

// withStore opens the configured store, runs fn and closes the store.
func (a *app) withStore(ctx context.Context, fn func(store.Backend) error) error {
	db, err := a.openStore(ctx, a.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if a.cfg.Database.InitSchema {
		if err := db.InitSchema(ctx); err != nil {
			return err
		}
	}
	return fn(db)
}
