package cli

import (
	"github.com/spf13/cobra"

	"github.com/aidanlsb/kestrel/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show kst version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildinfo.Read()
		if isJSONOutput() {
			outputSuccess(info, nil)
			return nil
		}

		writef("kst %s\n", info.Version)
		if info.Commit != "" {
			suffix := ""
			if info.Modified {
				suffix = " (modified)"
			}
			writef("commit: %s%s\n", info.Commit, suffix)
		}
		writef("go: %s %s\n", info.GoVersion, info.Platform)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
