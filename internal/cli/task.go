package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/imkarma/subtask/internal/engine"
	"github.com/imkarma/subtask/internal/tree"
	"github.com/spf13/cobra"
)

var (
	addUnder string
	listTree bool
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task, subtask or item",
	Long:  "Adds a task, or with --under a subtask (--under 2) or an item (--under 2.1).",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List the tasks, or the entries under a path",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

var renameCmd = &cobra.Command{
	Use:   "rename [path] [title]",
	Short: "Rename an entry; an empty title deletes it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRename,
}

var rmCmd = &cobra.Command{
	Use:     "rm [path]",
	Aliases: []string{"delete"},
	Short:   "Delete an entry and everything under it",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle [path]",
	Short: "Flip an item between complete and incomplete",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

var doneCmd = &cobra.Command{
	Use:   "done [path]",
	Short: "Mark an item as complete",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

func init() {
	addCmd.Flags().StringVarP(&addUnder, "under", "u", "", "Parent path: a task (2) or a subtask (2.1)")
	listCmd.Flags().BoolVarP(&listTree, "tree", "t", false, "Print the whole tree")
}

func runAdd(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return engine.ErrEmptyTitle
	}
	parent, err := parsePath(addUnder)
	if err != nil {
		return err
	}
	if len(parent) >= tree.Levels {
		return fmt.Errorf("items cannot have children; use a task or subtask path with --under")
	}

	s, err := mustSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := selectPath(s.engine, parent); err != nil {
		return err
	}
	level := len(parent)
	if err := s.engine.Dispatch(engine.AddCommand{Level: level, Title: title}); err != nil {
		return err
	}

	pos := append(parent, len(s.engine.Column(level))-1)
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s: %s\n", tree.LevelName(level), formatPath(pos), title)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := mustSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()
	out := cmd.OutOrStdout()

	if listTree {
		if len(s.engine.Tree().Tasks) == 0 {
			fmt.Fprintln(out, "No tasks yet. Run: subtask add \"title\"")
			return nil
		}
		printTree(cmd, s.engine.Tree())
		return nil
	}

	parent := []int{}
	if len(args) > 0 {
		if parent, err = parsePath(args[0]); err != nil {
			return err
		}
	}
	if len(parent) >= tree.Levels {
		return fmt.Errorf("%s is an item and has no children", args[0])
	}
	if err := selectPath(s.engine, parent); err != nil {
		return err
	}

	level := len(parent)
	fmt.Fprintf(out, "%s%s%s\n", colorBold, s.engine.ColumnTitle(level), colorReset)
	rows := s.engine.Column(level)
	if len(rows) == 0 {
		fmt.Fprintf(out, "  %sNo %ss yet.%s\n", colorDim, tree.LevelName(level), colorReset)
		return nil
	}
	for i, r := range rows {
		fmt.Fprintln(out, formatRow(formatPath(append(parent, i)), r))
	}
	return nil
}

func printTree(cmd *cobra.Command, t *tree.Tree) {
	out := cmd.OutOrStdout()
	var walk func(prefix []int, depth int)
	walk = func(prefix []int, depth int) {
		for i, r := range t.Children(prefix) {
			path := append(append([]int{}, prefix...), i)
			fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), formatRow(formatPath(path), r))
			if depth < tree.Levels-1 {
				walk(path, depth+1)
			}
		}
	}
	walk([]int{}, 0)
}

func runRename(cmd *cobra.Command, args []string) error {
	s, err := mustSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	level, index, err := target(s.engine, args[0])
	if err != nil {
		return err
	}
	old := s.engine.Column(level)[index].Title
	title := strings.TrimSpace(strings.Join(args[1:], " "))
	if err := s.engine.Dispatch(engine.RenameCommand{Level: level, Index: index, Title: title}); err != nil {
		return err
	}

	if title == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s: %s\n", tree.LevelName(level), args[0], old)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s %s: %s -> %s\n", tree.LevelName(level), args[0], old, title)
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	s, err := mustSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	level, index, err := target(s.engine, args[0])
	if err != nil {
		return err
	}
	old := s.engine.Column(level)[index].Title
	if err := s.engine.Dispatch(engine.DeleteCommand{Level: level, Index: index}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s: %s\n", tree.LevelName(level), args[0], old)
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	return setItem(cmd, args[0], false)
}

func runDone(cmd *cobra.Command, args []string) error {
	return setItem(cmd, args[0], true)
}

// setItem toggles the item at arg. With onlyComplete an already complete
// item is left alone.
func setItem(cmd *cobra.Command, arg string, onlyComplete bool) error {
	s, err := mustSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	level, index, err := target(s.engine, arg)
	if err != nil {
		return err
	}
	if level != tree.Levels-1 {
		return fmt.Errorf("%s is a %s: %w", arg, tree.LevelName(level), engine.ErrNotLeaf)
	}

	row := s.engine.Column(level)[index]
	if onlyComplete && row.Done() {
		fmt.Fprintf(cmd.OutOrStdout(), "Item %s is already complete: %s\n", arg, row.Title)
		return nil
	}
	if err := s.engine.Dispatch(engine.ToggleCommand{Index: index}); err != nil {
		if errors.Is(err, engine.ErrStorageUnavailable) {
			return fmt.Errorf("item changed but not saved: %w", err)
		}
		return err
	}

	if s.engine.Column(level)[index].Done() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s✓%s Completed %s: %s\n", colorGreen, colorReset, arg, row.Title)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Reopened %s: %s\n", arg, row.Title)
	}
	return nil
}
