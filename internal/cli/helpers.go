package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/imkarma/subtask/internal/config"
	"github.com/imkarma/subtask/internal/engine"
	"github.com/imkarma/subtask/internal/store"
	"github.com/imkarma/subtask/internal/tree"
)

const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// workspace returns the workspace selected by --dir or $SUBTASK_DIR.
func workspace() config.Workspace {
	return config.Workspace{Dir: config.Dir(flagDir)}
}

// session bundles everything a command needs to work on the tree.
type session struct {
	ws     config.Workspace
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
	log    *slog.Logger
}

func (s *session) Close() {
	s.store.Close()
}

// mustSession opens the workspace, returning an error if subtask is not
// initialized. Logs go to logOut.
func mustSession(logOut io.Writer) (*session, error) {
	ws := workspace()
	if !ws.Exists() {
		return nil, fmt.Errorf("subtask not initialized. Run: subtask init")
	}
	cfg, err := ws.LoadOrDefault()
	if err != nil {
		return nil, err
	}

	level := cfg.Level()
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := newLogger(logOut, level)

	s, err := openStore(ws.DBPath(), cfg.StorageKey)
	if err != nil {
		return nil, err
	}
	e := engine.Open(engine.Options{
		Storage:  s,
		Journal:  s,
		Logger:   log,
		MaxItems: cfg.MaxItemsPerColumn,
	})
	return &session{ws: ws, cfg: cfg, store: s, engine: e, log: log}, nil
}

// openStore opens or creates the SQLite store at the given path.
func openStore(dbPath, key string) (*store.Store, error) {
	return store.New(dbPath, key)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// parsePath turns a 1-based dotted path such as "2.1.3" into 0-based indices.
// The empty string is the root.
func parsePath(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ".")
	if len(parts) > tree.Levels {
		return nil, fmt.Errorf("invalid path %q: at most %d levels", s, tree.Levels)
	}
	path := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid path %q: each part must be a number starting at 1", s)
		}
		path[i] = n - 1
	}
	return path, nil
}

// formatPath is the inverse of parsePath.
func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p + 1)
	}
	return strings.Join(parts, ".")
}

// selectPath points the engine selection at path, level by level.
func selectPath(e *engine.Engine, path []int) error {
	if err := e.Dispatch(engine.ClearCommand{}); err != nil {
		return err
	}
	for level, idx := range path {
		if err := e.Dispatch(engine.SelectCommand{Level: level, Index: idx}); err != nil {
			return fmt.Errorf("no entry at %s: %w", formatPath(path[:level+1]), err)
		}
	}
	return nil
}

// target parses an entry path and selects its parent, returning the column
// level and index of the entry itself.
func target(e *engine.Engine, arg string) (level, index int, err error) {
	path, err := parsePath(arg)
	if err != nil {
		return 0, 0, err
	}
	if len(path) == 0 {
		return 0, 0, fmt.Errorf("a path to an entry is required")
	}
	level = len(path) - 1
	index = path[level]
	if err := selectPath(e, path[:level]); err != nil {
		return 0, 0, err
	}
	if index >= len(e.Column(level)) {
		return 0, 0, fmt.Errorf("no entry at %s: %w", formatPath(path), engine.ErrInvalidPath)
	}
	return level, index, nil
}

// progressGlyph draws the completion circle shown next to tasks and subtasks.
func progressGlyph(p tree.Progress) string {
	switch {
	case p.Total > 0 && p.Completed == p.Total:
		return colorGreen + "●" + colorReset
	case p.Completed > 0:
		return colorYellow + "◐" + colorReset
	}
	return colorDim + "○" + colorReset
}

func checkbox(done bool) string {
	if done {
		return colorGreen + "[x]" + colorReset
	}
	return "[ ]"
}

// formatRow renders one column entry for list output.
func formatRow(pos string, r tree.Row) string {
	if r.Level == tree.Levels-1 {
		title := r.Title
		if r.Done() {
			title = colorDim + title + colorReset
		}
		return fmt.Sprintf("%s%-8s%s %s %s", colorYellow, pos, colorReset, checkbox(r.Done()), title)
	}
	return fmt.Sprintf("%s%-8s%s %s %s %s(%d/%d, %d%%)%s",
		colorYellow, pos, colorReset, progressGlyph(r.Progress), r.Title,
		colorDim, r.Progress.Completed, r.Progress.Total, r.Progress.Percentage, colorReset)
}
