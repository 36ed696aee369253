package cli

import (
	"fmt"

	"github.com/imkarma/subtask/internal/store"
	"github.com/imkarma/subtask/internal/tree"
	"github.com/spf13/cobra"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log [path]",
	Short: "Show the change journal",
	Long:  "Shows recent changes, or every change recorded for the entry at path.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLog,
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
}

func runLog(cmd *cobra.Command, args []string) error {
	s, err := mustSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	var events []store.Event
	if len(args) > 0 {
		level, index, err := target(s.engine, args[0])
		if err != nil {
			return err
		}
		if events, err = s.store.EventsFor(s.engine.Column(level)[index].ID); err != nil {
			return err
		}
		if logLimit > 0 && len(events) > logLimit {
			events = events[len(events)-logLimit:]
		}
	} else if events, err = s.store.Events(logLimit); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(out, "No events yet.")
		return nil
	}

	for _, e := range events {
		what := ""
		if e.TaskID != "" {
			what = fmt.Sprintf("[%s] ", tree.LevelName(e.Level))
		}
		fmt.Fprintf(out, "  %s  %-10s %s%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Type, what, e.Content)
	}
	return nil
}
