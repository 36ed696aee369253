package cli

import (
	"fmt"
	"os"

	"github.com/imkarma/subtask/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a subtask workspace",
	Long:  "Creates a .subtask/ directory (or --dir) with default config and database.",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	ws := workspace()
	out := cmd.OutOrStdout()

	// Check if already initialized.
	if ws.Exists() {
		return fmt.Errorf("subtask already initialized in %s", ws.Dir)
	}

	if err := os.MkdirAll(ws.Dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", ws.Dir, err)
	}

	// Keep an existing config, write the default otherwise.
	cfg, err := ws.LoadOrDefault()
	if err != nil {
		return err
	}
	if _, err := os.Stat(ws.ConfigPath()); os.IsNotExist(err) {
		if err := config.Save(ws.ConfigPath(), cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
	}

	// Create database by opening store (migration runs automatically).
	s, err := openStore(ws.DBPath(), cfg.StorageKey)
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	if _, found, _ := s.Load(); !found {
		if err := s.Save(nil); err != nil {
			s.Close()
			return fmt.Errorf("create database: %w", err)
		}
	}
	s.Close()

	fmt.Fprintf(out, "Initialized subtask in %s/\n", ws.Dir)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Run: subtask add \"your first task\"")
	fmt.Fprintln(out, "  2. Run: subtask add --under 1 \"a subtask\"")
	fmt.Fprintln(out, "  3. Run: subtask ui")

	return nil
}
