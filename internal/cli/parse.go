package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/kestrel/internal/filter"
)

var parseCmd = &cobra.Command{
	Use:   "parse <filter>",
	Short: "Check a filter and print its canonical form",
	Long: `Parses a filter without running it. Prints the normalized query, or the
first error with a caret under the offending text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		q, err := filter.Parse(text)
		if err != nil {
			return handleQueryError(text, err)
		}

		if isJSONOutput() {
			data := map[string]any{
				"query": q.String(),
				"empty": q.IsEmpty(),
			}
			if q.OrderBy != nil {
				data["order_by"] = map[string]string{
					"field":     q.OrderBy.Field.String(),
					"direction": q.OrderBy.Direction.String(),
				}
			}
			outputSuccess(data, nil)
			return nil
		}

		if q.IsEmpty() {
			writeln("(empty filter: matches every task)")
			return nil
		}
		writeln(q.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
