package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/kestrel/internal/config"
	"github.com/aidanlsb/kestrel/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file and create the database",
	Long: `Creates a commented config file (default ~/.config/kestrel/config.toml)
if none exists, then opens the configured database so its schema is in place.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ResolveConfigPath(configPath)
		created, err := config.CreateDefault(path)
		if err != nil {
			return handleError(ErrConfigInvalid, fmt.Errorf("failed to create config: %w", err), "")
		}

		loaded, err := config.LoadFrom(path)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "Fix or remove "+path)
		}
		cfg = loaded
		resolvedConfigPath = path

		st, err := openStore(cmd.Context())
		if err != nil {
			return handleError(ErrDatabaseError, err, "Check database and dsn in "+path)
		}
		defer st.Close()
		dsn, _ := cfg.GetDSN()

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"config":         path,
				"config_created": created,
				"database":       string(st.Dialect()),
				"dsn":            dsn,
			}, nil)
			return nil
		}

		if created {
			writeln(ui.Successf("Created %s", path))
		} else {
			writeln(ui.Hint("• " + path + " already exists (kept)"))
		}
		writeln(ui.Successf("Database ready (%s)", st.Dialect()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
