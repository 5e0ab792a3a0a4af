package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/kestrel/internal/model"
	"github.com/aidanlsb/kestrel/internal/store"
	"github.com/aidanlsb/kestrel/internal/ui"
)

var (
	taskBody    string
	taskProject string
	taskTags    []string
	taskDue     string
	taskStart   string
	taskParent  string
	taskRecur   string

	taskListAll  bool
	taskListSort sortFlag
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Add, show and complete tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: `Adds a task. Projects and tags are created on first use.

Examples:
  kst task add "Write report" --project Work --tag urgent --due 2024-06-01
  kst task add "Buy milk" --body "- oat\n- whole"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nt := model.NewTask{
			Title:   strings.Join(args, " "),
			Project: taskProject,
			Tags:    taskTags,
		}
		if taskBody != "" {
			nt.Body = &taskBody
		}
		if taskParent != "" {
			nt.ParentID = &taskParent
		}
		if taskRecur != "" {
			nt.Recurrence = &taskRecur
		}
		var err error
		if nt.DueDate, err = optionalDateFlag("due", taskDue); err != nil {
			return handleError(ErrInvalidInput, err, "Use YYYY-MM-DD or YYYY-MM-DDTHH:MM")
		}
		if nt.StartAt, err = optionalDateFlag("start", taskStart); err != nil {
			return handleError(ErrInvalidInput, err, "Use YYYY-MM-DD or YYYY-MM-DDTHH:MM")
		}

		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			task, err := st.CreateTask(ctx, currentUser(), nt)
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			if isJSONOutput() {
				outputSuccess(task, nil)
				return nil
			}
			writeln(ui.Successf("Added %s %s", task.Title, ui.Hint("("+task.ID+")")))
			return nil
		})
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active tasks",
	Long:  `Lists active tasks, or every task with --all. Equivalent to 'kst query "status = active"'.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := "status = active"
		if taskListAll {
			text = ""
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			return runQuery(ctx, st, text, &taskListSort)
		})
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task with its rendered body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			task, err := st.GetTask(ctx, currentUser(), args[0])
			if err != nil {
				return handleError(storeErrorCode(err), err, "List task ids with: kst task list --json")
			}
			if isJSONOutput() {
				outputSuccess(task, nil)
				return nil
			}
			printTask(task)
			return nil
		})
	},
}

func printTask(task *model.Task) {
	title := task.Title
	if task.CompletedAt != nil {
		title = ui.Strike.Render(title)
	}
	writeln(ui.Header(title))

	writef("%s %s\n", ui.Muted.Render("id:     "), task.ID)
	writef("%s %s\n", ui.Muted.Render("status: "), strings.ToLower(string(task.Status())))
	if task.ProjectTitle != "" {
		writef("%s %s\n", ui.Muted.Render("project:"), task.ProjectTitle)
	}
	if len(task.Tags) > 0 {
		writef("%s #%s\n", ui.Muted.Render("tags:   "), strings.Join(task.Tags, " #"))
	}
	for _, d := range []struct {
		label string
		at    *time.Time
	}{
		{"due:    ", task.DueDate},
		{"start:  ", task.StartAt},
		{"done:   ", task.CompletedAt},
	} {
		if d.at != nil {
			writef("%s %s\n", ui.Muted.Render(d.label), ui.FormatDate(*d.at))
		}
	}
	if task.Recurrence != nil {
		writef("%s %s\n", ui.Muted.Render("repeats:"), *task.Recurrence)
	}

	if task.Body == nil || strings.TrimSpace(*task.Body) == "" {
		return
	}
	display := ui.NewDisplayContext()
	rendered, err := ui.RenderMarkdown(*task.Body, display.TermWidth)
	if err != nil {
		rendered = *task.Body
	}
	writeln()
	writeln(strings.TrimRight(rendered, "\n"))
}

// taskStateCmd builds done/reopen/rm, which share an id-only shape.
func taskStateCmd(use, short, verb string, apply func(*store.Store, context.Context, string, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st *store.Store) error {
				for _, id := range args {
					if err := apply(st, ctx, currentUser(), id); err != nil {
						return handleError(storeErrorCode(err), err, "")
					}
				}
				if isJSONOutput() {
					outputSuccess(map[string]any{verb: args}, &Meta{Count: len(args)})
					return nil
				}
				writeln(ui.Successf("%s %s", strings.ToUpper(verb[:1])+verb[1:], strings.Join(args, ", ")))
				return nil
			})
		},
	}
}

func optionalDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := store.ParseTimestamp(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

func init() {
	taskAddCmd.Flags().StringVar(&taskBody, "body", "", "Markdown body")
	taskAddCmd.Flags().StringVarP(&taskProject, "project", "p", "", "Project title (created if missing)")
	taskAddCmd.Flags().StringSliceVarP(&taskTags, "tag", "t", nil, "Tag name (repeatable)")
	taskAddCmd.Flags().StringVar(&taskDue, "due", "", "Due date (YYYY-MM-DD[THH:MM])")
	taskAddCmd.Flags().StringVar(&taskStart, "start", "", "Start date (YYYY-MM-DD[THH:MM])")
	taskAddCmd.Flags().StringVar(&taskParent, "parent", "", "Parent task id")
	taskAddCmd.Flags().StringVar(&taskRecur, "recur", "", "Recurrence rule, stored as given")

	taskListCmd.Flags().BoolVarP(&taskListAll, "all", "a", false, "Include completed tasks")
	addSortFlag(taskListCmd.Flags(), &taskListSort)

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd,
		taskStateCmd("done", "Mark tasks completed", "completed", (*store.Store).CompleteTask),
		taskStateCmd("reopen", "Mark tasks active again", "reopened", (*store.Store).ReopenTask),
		taskStateCmd("rm", "Delete tasks", "deleted", (*store.Store).DeleteTask),
	)
	rootCmd.AddCommand(taskCmd)
}
