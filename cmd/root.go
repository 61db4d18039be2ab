// Package cmd is the taxi command line: the web server plus the database
// maintenance commands around it.
//
// Every command reads the TAXI_* environment first; flags given on the
// command line override it.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fleetdesk/taxi/internal/config"
	"github.com/fleetdesk/taxi/internal/logging"
	"github.com/fleetdesk/taxi/internal/storage"
)

// app is the state shared by the commands of one invocation.
type app struct {
	cfg config.Config
}

// NewRootCommand builds the taxi command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "taxi",
		Short: "Taxi fleet manager",
		Long: `taxi serves the fleet site where staff manage manufacturers, cars and
drivers, and maintains its database.

Quick Start:
  taxi migrate                    Create or upgrade the schema
  taxi seed                       Load the demo fleet
  taxi createdriver --username ann --password ... --license ABC12345
  taxi serve                      Start the web server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("db-dialect", "", "database engine: sqlite, mysql or postgres (TAXI_DB_DIALECT)")
	pf.String("db-dsn", "", "database connection string (TAXI_DB_DSN)")
	pf.String("log-level", "", "log level: debug, info, warn or error (TAXI_LOG_LEVEL)")
	pf.String("log-format", "", "log format: text or json (TAXI_LOG_FORMAT)")
	pf.Bool("debug-sql", false, "log every SQL statement at debug level (TAXI_DEBUG_SQL)")

	root.AddCommand(
		a.serveCommand(),
		a.migrateCommand(),
		a.seedCommand(),
		a.createDriverCommand(),
		versionCommand(),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCommand().Execute() //nolint:wrapcheck // reported by main
}

// resolveConfig reads the environment, lays the command-line flags over it
// and validates the result.
func resolveConfig(fs *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err //nolint:wrapcheck // already prefixed
	}
	if err := applyFlags(fs, &cfg); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err //nolint:wrapcheck // already prefixed
	}
	return cfg, nil
}

// applyFlags copies the flags set on the command line over cfg.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "db-dialect":
			cfg.DBDialect = f.Value.String()
		case "db-dsn":
			cfg.DBDSN = f.Value.String()
		case "log-level":
			cfg.LogLevel = f.Value.String()
		case "log-format":
			cfg.LogFormat = f.Value.String()
		case "debug-sql":
			cfg.DebugSQL, err = fs.GetBool(f.Name)
		case "addr":
			cfg.HTTPAddr = f.Value.String()
		case "page-size":
			cfg.PageSize, err = fs.GetInt(f.Name)
		case "secure-cookies":
			cfg.SecureCookies, err = fs.GetBool(f.Name)
		}
	})
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	return nil
}

// logger builds the process logger on the command's stderr.
func (a *app) logger(cmd *cobra.Command) (*slog.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), a.cfg.LogLevel, a.cfg.LogFormat) //nolint:wrapcheck // already prefixed
}

// openStore connects to the configured database.
func (a *app) openStore(ctx context.Context, logger *slog.Logger) (*storage.Store, error) {
	opts := storage.Options{
		Dialect:      a.cfg.DBDialect,
		DSN:          a.cfg.DBDSN,
		MaxOpenConns: a.cfg.DBMaxOpenConns,
	}
	if a.cfg.DebugSQL {
		opts.Logger = logging.SQLLogger{Logger: logger}
	}
	store, err := storage.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", a.cfg.DBDialect, err)
	}
	return store, nil
}

// migrated opens the store and brings its schema up to date.
func (a *app) migrated(ctx context.Context, logger *slog.Logger) (*storage.Store, error) {
	store, err := a.openStore(ctx, logger)
	if err != nil {
		return nil, err
	}
	applied, err := store.Migrate(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err //nolint:wrapcheck // already prefixed
	}
	for _, name := range applied {
		logger.InfoContext(ctx, "applied migration", "name", name)
	}
	return store, nil
}
