package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/kestrel/internal/model"
	"github.com/aidanlsb/kestrel/internal/store"
	"github.com/aidanlsb/kestrel/internal/ui"
)

var querySort sortFlag

var queryCmd = &cobra.Command{
	Use:   "query <filter>",
	Short: "Find tasks with the filter language",
	Long: `Run a filter query over your tasks.

Fields: title, body, status, project, tags (tag), due_date (due),
start_at (start), created (created_at), updated (updated_at).

Operators: =  !=  =~ (glob)  !~  >  <  >=  <=  IS [NOT] NULL  [NOT] IN [...]
Logic:     AND  OR  NOT  ( )      Sort: ORDER BY <field> [ASC|DESC]

Examples:
  kst query "status = active AND due < '2024-06-01'"
  kst query "project =~ 'work*' OR tags IN ['urgent', 'today']"
  kst query "NOT (body IS NULL) ORDER BY title DESC"
  kst query "" --sort due`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			return runQuery(ctx, st, text, &querySort)
		})
	},
}

// runQuery executes text and prints the resulting tasks.
func runQuery(ctx context.Context, st *store.Store, text string, sort *sortFlag) error {
	start := time.Now()
	fallback, err := fallbackOrder(sort)
	if err != nil {
		return handleError(ErrConfigInvalid, err, "")
	}

	tasks, err := newExecutor(st).Execute(ctx, text, currentUser(), fallback)
	if err != nil {
		return handleQueryError(text, err)
	}
	printTasks(tasks, time.Since(start))
	return nil
}

func printTasks(tasks []model.Task, elapsed time.Duration) {
	if isJSONOutput() {
		if tasks == nil {
			tasks = []model.Task{}
		}
		outputSuccess(map[string]any{"tasks": tasks},
			&Meta{Count: len(tasks), QueryTimeMs: elapsed.Milliseconds()})
		return
	}

	if len(tasks) == 0 {
		writeln(ui.Hint("No matching tasks."))
		return
	}
	writef("%s\n", ui.RenderTasks(ui.NewDisplayContext(), tasks))
	writeln(ui.Hint(ui.Count(len(tasks), "task", "tasks")))
}

func init() {
	addSortFlag(queryCmd.Flags(), &querySort)
	rootCmd.AddCommand(queryCmd)
}
