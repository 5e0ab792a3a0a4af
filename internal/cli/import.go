package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/kestrel/internal/store"
	"github.com/aidanlsb/kestrel/internal/ui"
)

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import projects and tasks from YAML",
	Long: `Reads a YAML document and creates its projects and tasks. Use "-" for stdin.

  projects:
    - title: Work
  tasks:
    - title: Write report
      project: Work
      tags: [urgent]
      due: 2024-06-01
      body: |
        Outline first.
    - title: Old chore
      completed: 2024-01-02T09:30`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader
		if args[0] == "-" {
			r = os.Stdin
		} else {
			f, err := os.Open(args[0])
			if err != nil {
				return handleError(ErrInvalidInput, fmt.Errorf("open import file: %w", err), "")
			}
			defer f.Close()
			r = f
		}

		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			result, err := st.Import(ctx, currentUser(), r)
			if err != nil {
				return handleError(ErrInvalidInput, err, "")
			}
			if isJSONOutput() {
				outputSuccess(result, nil)
				return nil
			}
			writeln(ui.Successf("Imported %d projects and %d tasks", result.Projects, result.Tasks))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
