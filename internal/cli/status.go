package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Quick status overview",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := mustSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()
	out := cmd.OutOrStdout()

	t := s.engine.Tree()
	if len(t.Tasks) == 0 {
		fmt.Fprintf(out, "No tasks. Run: %ssubtask add \"title\"%s\n", colorCyan, colorReset)
		return nil
	}

	st := t.Stats()
	fmt.Fprintf(out, "%sTasks: %d total%s\n", colorBold, st.Tasks, colorReset)
	fmt.Fprintf(out, "  %-16s %d\n", "subtasks:", st.Subtasks)
	fmt.Fprintf(out, "  %-16s %s%d%s / %d\n", "items done:", colorGreen, st.CompletedItems, colorReset, st.Items)
	fmt.Fprintf(out, "  %-16s %s%d%s\n", "tasks complete:", colorGreen, st.CompletedTasks, colorReset)

	fmt.Fprintln(out, "")
	for i, task := range t.Tasks {
		p := task.Progress()
		fmt.Fprintf(out, "  %s %s%-4d%s %-40s %3d%%\n", progressGlyph(p), colorYellow, i+1, colorReset, task.Title, p.Percentage)
	}

	if ts, err := s.store.UpdatedAt(); err == nil && !ts.IsZero() {
		fmt.Fprintf(out, "\n%sLast saved %s%s\n", colorDim, ts.Local().Format("2006-01-02 15:04:05"), colorReset)
	}
	return nil
}
