package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/subtask/internal/tui"
	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive three-column view",
	Long:  "Opens tasks, subtasks and items side by side. Press ? inside for key bindings.",
	Args:  cobra.NoArgs,
	RunE:  runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	// The alt screen owns the terminal, so logs go to a file.
	ws := workspace()
	if !ws.Exists() {
		return fmt.Errorf("subtask not initialized. Run: subtask init")
	}
	logFile, err := os.OpenFile(ws.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()

	s, err := mustSession(logFile)
	if err != nil {
		return err
	}
	defer s.Close()

	model := tui.New(s.engine, tui.Options{
		ExportDir: s.cfg.ExportDir,
		Logger:    s.log,
		Clipboard: writeClipboard,
		Paste:     readClipboard,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	s.log.Info("ui started", "tasks", len(s.engine.Tree().Tasks))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
