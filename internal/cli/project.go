package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/kestrel/internal/model"
	"github.com/aidanlsb/kestrel/internal/store"
	"github.com/aidanlsb/kestrel/internal/ui"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a project (no-op if it already exists)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args, " ")
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			p, err := st.CreateProject(ctx, currentUser(), title)
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			if isJSONOutput() {
				outputSuccess(p, nil)
				return nil
			}
			writeln(ui.Successf("Project %s", p.Title))
			return nil
		})
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			projects, err := st.ListProjects(ctx, currentUser())
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			if isJSONOutput() {
				if projects == nil {
					projects = []model.Project{}
				}
				outputSuccess(map[string]any{"projects": projects}, &Meta{Count: len(projects)})
				return nil
			}
			if len(projects) == 0 {
				writeln(ui.Hint("No projects yet. Add one with: kst project add <title>"))
				return nil
			}
			for _, p := range projects {
				writeln(p.Title)
			}
			return nil
		})
	},
}

func init() {
	projectCmd.AddCommand(projectAddCmd, projectListCmd)
	rootCmd.AddCommand(projectCmd)
}
