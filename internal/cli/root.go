// Package cli implements the command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/kestrel/internal/config"
	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/logging"
	"github.com/aidanlsb/kestrel/internal/query"
	"github.com/aidanlsb/kestrel/internal/store"
	"github.com/aidanlsb/kestrel/internal/ui"
)

var (
	// Global flags
	configPath   string
	userFlag     string
	logLevelFlag string

	// Resolved values
	resolvedConfigPath string
	cfg                = &config.Config{}
	logger             = logging.NewNop()

	// stdout receives all command output.
	stdout io.Writer = os.Stdout
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kst",
	Short: "kestrel - a personal task manager with a filter language",
	Long: `kestrel keeps tasks, projects and tags in SQLite or PostgreSQL and finds
them with a small filter language:

  status = active AND (due < '2024-06-01' OR tags = 'urgent') ORDER BY due

Run 'kst init' to write a default config file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, resolvedConfigPath, err = config.LoadResolved(configPath)
		if err != nil {
			return setupError(cmd, err, "Fix or remove "+config.ResolveConfigPath(configPath))
		}

		level := cfg.LogLevel
		if logLevelFlag != "" {
			level = logLevelFlag
		}
		l, err := logging.NewLogger("kst", level)
		if err != nil {
			return setupError(cmd, err, "Use one of: debug, info, warn, error")
		}
		logger = l

		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)
		return nil
	},
}

// errReported stops a command whose failure was already written as JSON.
var errReported = errors.New("error already reported")

// setupError reports a configuration failure before any command runs. Unlike
// handleError it always returns an error so the command body is skipped.
func setupError(cmd *cobra.Command, err error, suggestion string) error {
	if !isJSONOutput() {
		return fmt.Errorf("%w\n\n%s", err, suggestion)
	}
	outputError(ErrConfigInvalid, err.Error(), nil, suggestion)
	cmd.SilenceErrors = true
	return errReported
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logger.Errorw("command failed", "error", err)
	}
	_ = logger.Sync()
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User whose tasks to use (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for scripts)")
}

// currentUser returns the user all reads and writes are scoped to.
func currentUser() string {
	if userFlag != "" {
		return userFlag
	}
	return cfg.GetUser()
}

// openStore opens the configured database.
func openStore(ctx context.Context) (*store.Store, error) {
	dialect, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.GetDSN()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, dialect, dsn, store.WithLogger(logger))
}

// newExecutor builds a query executor over st honoring [query] settings.
func newExecutor(st *store.Store) *query.Executor {
	return query.NewExecutor(st,
		query.WithLogger(logger.WithUser(currentUser())),
		query.WithParallel(cfg.Query.Parallel),
	)
}

// defaultSort returns the configured fallback sort.
func defaultSort() (*filter.OrderBy, error) {
	order, err := query.ParseSort(cfg.Query.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("config query.default_sort: %w", err)
	}
	return order, nil
}

// withStore opens the store, runs fn and closes the store.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, st *store.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openStore(ctx)
	if err != nil {
		return handleError(ErrDatabaseError, err, "Check database and dsn in "+resolvedConfigPath)
	}
	defer st.Close()
	return fn(ctx, st)
}
