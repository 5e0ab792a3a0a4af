package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/kestrel/internal/model"
	"github.com/aidanlsb/kestrel/internal/store"
	"github.com/aidanlsb/kestrel/internal/ui"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Inspect tags",
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
	Long:  `Lists every tag you have used. Find tagged tasks with: kst query "tags = 'name'"`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			tags, err := st.ListTags(ctx, currentUser())
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			if isJSONOutput() {
				if tags == nil {
					tags = []model.Tag{}
				}
				outputSuccess(map[string]any{"tags": tags}, &Meta{Count: len(tags)})
				return nil
			}
			if len(tags) == 0 {
				writeln(ui.Hint("No tags yet. Tag a task with: kst task add <title> --tag <name>"))
				return nil
			}
			for _, t := range tags {
				writeln(ui.Accent.Render("#" + t.Name))
			}
			return nil
		})
	},
}

func init() {
	tagCmd.AddCommand(tagListCmd)
	rootCmd.AddCommand(tagCmd)
}
