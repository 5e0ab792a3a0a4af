package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/store"
)

var completeCursor int

var completeCmd = &cobra.Command{
	Use:   "complete <filter>",
	Short: "Suggest completions for a partial filter",
	Long: `Prints what can be typed at the cursor (end of input by default):
field names, keywords, status values, or your project titles and tag names.

Examples:
  kst complete "sta"
  kst complete "project = " --json
  kst complete "tags IN [ur"
  kst complete "project = W AND due < 2024" --cursor 11`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		cursor := completeCursor
		if cursor < 0 || cursor > len(text) {
			cursor = len(text)
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			cc := filter.DetectCompletionContext(text, cursor)
			suggestions, err := filter.Suggest(ctx, text, cursor, st.ValuesFor(currentUser()))
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}

			if isJSONOutput() {
				if suggestions == nil {
					suggestions = []filter.Suggestion{}
				}
				where := map[string]any{
					"kind":    cc.Kind.String(),
					"partial": cc.Partial,
					"start":   cc.Start,
				}
				if cc.Kind == filter.ContextFieldValue || cc.Kind == filter.ContextArrayValue {
					where["field"] = cc.Field.String()
				}
				outputSuccess(map[string]any{
					"context":     where,
					"suggestions": suggestions,
				}, &Meta{Count: len(suggestions)})
				return nil
			}

			for _, s := range suggestions {
				writeln(s.Text)
			}
			return nil
		})
	},
}

func init() {
	completeCmd.Flags().IntVar(&completeCursor, "cursor", -1, "Byte offset of the cursor (default: end of input)")
	rootCmd.AddCommand(completeCmd)
}
