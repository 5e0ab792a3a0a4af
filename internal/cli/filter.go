package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/kestrel/internal/model"
	"github.com/aidanlsb/kestrel/internal/store"
	"github.com/aidanlsb/kestrel/internal/ui"
)

var filterRunSort sortFlag

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Save and run named filters",
	Long: `Saved filters keep the query text under a slug derived from the title.
The text is parsed again every time the filter runs.`,
}

var filterSaveCmd = &cobra.Command{
	Use:   "save <title> <filter>",
	Short: "Save a filter (replaces one with the same slug)",
	Example: `  kst filter save "Due this week" "status = active AND due <= '2024-06-07' ORDER BY due"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := args[0]
		text := strings.Join(args[1:], " ")
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			f, err := st.SaveFilter(ctx, currentUser(), title, text)
			if err != nil {
				if errorCode(err) == ErrQueryInvalid {
					return handleQueryError(text, err)
				}
				return handleError(ErrDatabaseError, err, "")
			}
			if isJSONOutput() {
				outputSuccess(f, nil)
				return nil
			}
			writeln(ui.Successf("Saved %s as %s", f.Title, ui.Accent.Render(f.Slug)))
			return nil
		})
	},
}

var filterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			filters, err := st.ListFilters(ctx, currentUser())
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			if isJSONOutput() {
				if filters == nil {
					filters = []model.SavedFilter{}
				}
				outputSuccess(map[string]any{"filters": filters}, &Meta{Count: len(filters)})
				return nil
			}
			if len(filters) == 0 {
				writeln(ui.Hint("No saved filters. Save one with: kst filter save <title> <filter>"))
				return nil
			}
			for _, f := range filters {
				writef("%s  %s\n", ui.Accent.Render(f.Slug), ui.Hint(f.Query))
			}
			return nil
		})
	},
}

var filterRunCmd = &cobra.Command{
	Use:   "run <slug>",
	Short: "Run a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			f, err := st.GetFilter(ctx, currentUser(), args[0])
			if err != nil {
				return handleError(storeErrorCode(err), err, "List saved filters with: kst filter list")
			}
			return runQuery(ctx, st, f.Query, &filterRunSort)
		})
	},
}

var filterRmCmd = &cobra.Command{
	Use:   "rm <slug>",
	Short: "Delete a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			if err := st.DeleteFilter(ctx, currentUser(), args[0]); err != nil {
				return handleError(storeErrorCode(err), err, "")
			}
			if isJSONOutput() {
				outputSuccess(map[string]string{"deleted": args[0]}, nil)
				return nil
			}
			writeln(ui.Successf("Deleted %s", args[0]))
			return nil
		})
	},
}

func init() {
	addSortFlag(filterRunCmd.Flags(), &filterRunSort)
	filterCmd.AddCommand(filterSaveCmd, filterListCmd, filterRunCmd, filterRmCmd)
	rootCmd.AddCommand(filterCmd)
}
