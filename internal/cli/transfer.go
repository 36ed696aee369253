package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/imkarma/subtask/internal/engine"
	"github.com/imkarma/subtask/internal/transfer"
	"github.com/imkarma/subtask/internal/tree"
	"github.com/spf13/cobra"
)

var (
	copyStdout     bool
	exportYAML     bool
	importYes      bool
	pasteClipboard bool
)

// Clipboard access is swapped out in tests.
var (
	writeClipboard = clipboard.WriteAll
	readClipboard  = clipboard.ReadAll
)

var copyCmd = &cobra.Command{
	Use:   "copy [path]",
	Short: "Copy a column to the clipboard as a list",
	Long:  "Copies the tasks, or the entries under a task or subtask path, as a header line followed by \"- title\" lines.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCopy,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export all tasks to a JSON or YAML file",
	Long:  "Writes the whole tree to file, or to subtasks-YYYY-MM-DD.json in export_dir. Use - for stdout.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace all tasks with the contents of a JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var pasteCmd = &cobra.Command{
	Use:   "paste [path]",
	Short: "Add every entry of a pasted list",
	Long: `Reads list text from stdin, or the clipboard with --clipboard, and adds one
entry per "- title" or "1. title" line under path. Lines like "- [x] title"
are checked off when they land in the item column.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPaste,
}

func init() {
	pasteCmd.Flags().BoolVarP(&pasteClipboard, "clipboard", "c", false, "Read from the clipboard instead of stdin")
	copyCmd.Flags().BoolVar(&copyStdout, "stdout", false, "Print instead of copying to the clipboard")
	exportCmd.Flags().BoolVar(&exportYAML, "yaml", false, "Write YAML instead of JSON")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runCopy(cmd *cobra.Command, args []string) error {
	s, err := mustSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

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
	text, ok := s.engine.ColumnText(level)
	if !ok {
		return fmt.Errorf("nothing to copy")
	}
	if copyStdout {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	if err := writeClipboard(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Copied %d %ss to clipboard\n", len(s.engine.Column(level)), tree.LevelName(level))
	return nil
}

func runPaste(cmd *cobra.Command, args []string) error {
	parent := []int{}
	if len(args) > 0 {
		var err error
		if parent, err = parsePath(args[0]); err != nil {
			return err
		}
	}
	if len(parent) >= tree.Levels {
		return fmt.Errorf("%s is an item and has no children", args[0])
	}

	var text string
	if pasteClipboard {
		var err error
		if text, err = readClipboard(); err != nil {
			return fmt.Errorf("read clipboard: %w", err)
		}
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	entries := transfer.ParseList(text)
	if len(entries) == 0 {
		return fmt.Errorf("no list entries found")
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
	added := 0
	for _, entry := range entries {
		if err := s.engine.Dispatch(engine.AddCommand{Level: level, Title: entry.Title}); err != nil {
			if added > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d %ss before stopping\n", added, tree.LevelName(level))
			}
			return err
		}
		added++
		if entry.Done && level == tree.Levels-1 {
			if err := s.engine.Dispatch(engine.ToggleCommand{Index: len(s.engine.Column(level)) - 1}); err != nil {
				return err
			}
		}
	}
	s.log.Debug("pasted entries", "level", level, "count", added)
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d %ss\n", added, tree.LevelName(level))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := mustSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		name = transfer.FileName(s.engine.Today())
		if exportYAML {
			name = strings.TrimSuffix(name, ".json") + ".yaml"
		}
		name = filepath.Join(s.cfg.ExportDir, name)
	}

	tasks := s.engine.Export()
	var data []byte
	switch {
	case name == "-" && exportYAML:
		data, err = transfer.MarshalYAML(tasks)
	case name == "-":
		data, err = transfer.Marshal(tasks)
	case exportYAML && !transfer.IsYAML(name):
		data, err = transfer.MarshalYAML(tasks)
	default:
		data, err = transfer.Encode(name, tasks)
	}
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}

	if name == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	s.log.Info("exported tasks", "file", name, "count", len(tasks))
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(tasks), name)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	name := args[0]
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}

	tasks, err := transfer.Decode(name, data)
	if err != nil {
		return fmt.Errorf("import %s: %w", name, err)
	}

	s, err := mustSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	if !importYes && len(s.engine.Tree().Tasks) > 0 {
		if name == "-" {
			return fmt.Errorf("reading from stdin: pass --yes to replace existing tasks")
		}
		if !confirm(cmd, "This will replace all your current tasks. Are you sure?") {
			fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled.")
			return nil
		}
	}

	if err := s.engine.Dispatch(engine.ImportCommand{Tasks: tasks}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks from %s\n", len(tasks), name)
	return nil
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
