package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/docsection/internal/sectionize"
)

var (
	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// newLogger writes text logs to w. verbose lowers the level to debug.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func printSummary(w io.Writer, name string, res sectionize.Result) {
	fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf("%s: %d sections (%d orphan)", name, res.Total(), res.Orphans)))
}
