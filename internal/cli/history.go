package cli

import (
	"fmt"
	"io"

	"github.com/studiowebux/gqlws/internal/client"
	"github.com/studiowebux/gqlws/internal/history"
)

// HistoryOptions filters `history`
type HistoryOptions struct {
	TabID string
	Limit int
}

// ListHistory prints executed queries, newest first
func ListHistory(app *App, opts HistoryOptions, format string) error {
	if app.History == nil {
		return fmt.Errorf("history is not available")
	}

	entries, err := app.History.List(opts.TabID, opts.Limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	return write(app.Out, format, entries, func(w io.Writer) error {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No history")
			return nil
		}
		for _, e := range entries {
			color := getStatusColor(e.Status)
			if e.Failed() {
				color = colorRed
			}
			op := e.OperationName
			if op == "" {
				op = "(anonymous)"
			}
			fmt.Fprintf(w, "%s%s%s  tab %-4s %s%3d%s %-8s %s %s\n",
				colorGray, e.Timestamp.Local().Format("2006-01-02 15:04:05"), colorReset,
				e.TabID, color, e.Status, colorReset,
				client.FormatDuration(e.Duration), op, e.URL)
			if e.Error != "" {
				fmt.Fprintf(w, "      %s%s%s\n", colorRed, firstLine(e.Error), colorReset)
			}
		}
		return nil
	})
}

// ClearHistory removes the history of the workspace, or of one tab
func ClearHistory(app *App, tabID string) error {
	if app.History == nil {
		return fmt.Errorf("history is not available")
	}

	n, err := app.History.Clear(tabID)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Removed %d entries\n", n)
	return nil
}

// HistoryStats prints per endpoint and operation aggregates of the history
func HistoryStats(app *App, format string) error {
	if app.History == nil {
		return fmt.Errorf("history is not available")
	}

	stats, err := app.History.Stats()
	if err != nil {
		return err
	}
	if stats == nil {
		stats = []history.Stats{}
	}

	return write(app.Out, format, stats, func(w io.Writer) error {
		if len(stats) == 0 {
			fmt.Fprintln(w, "No history")
			return nil
		}
		for _, s := range stats {
			op := s.OperationName
			if op == "" {
				op = "(anonymous)"
			}
			fmt.Fprintf(w, "%s %s\n", s.URL, op)
			fmt.Fprintf(w, "  calls: %d  success: %.0f%%  errors: %d  network: %d  graphql: %d\n",
				s.TotalCalls, s.SuccessRate(), s.ErrorCount, s.NetworkErrors, s.GraphQLErrors)
			fmt.Fprintf(w, "  %stime avg %s  min %s  max %s%s\n", colorGray,
				client.FormatDuration(int64(s.AvgDurationMs)),
				client.FormatDuration(s.MinDurationMs),
				client.FormatDuration(s.MaxDurationMs), colorReset)
		}
		return nil
	})
}
