package cli

import (
	"github.com/spf13/cobra"
)

var (
	flagDir     string
	flagVerbose bool
)

const longHelp = `subtask keeps tasks, subtasks and checklist items in three linked columns.
Entries are addressed by 1-based dotted paths: 2 is the second task,
2.1 its first subtask, 2.1.3 the third item of that subtask.`

var rootCmd = &cobra.Command{
	Use:           "subtask",
	Short:         "Three-column task organizer",
	Long:          longHelp,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Workspace directory (default .subtask, or $SUBTASK_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(pasteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(statusCmd)
}
