package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/studiowebux/gqlws/internal/client"
	"github.com/studiowebux/gqlws/internal/config"
	"github.com/studiowebux/gqlws/internal/filter"
	"github.com/studiowebux/gqlws/internal/history"
)

// ErrRequestFailed is returned by Run when the response is not a success,
// after the output was printed
var ErrRequestFailed = errors.New("request failed")

// RunOptions contains options for running a tab in CLI mode
type RunOptions struct {
	TabID        string
	OutputFormat string // json, yaml, text, body
	SavePath     string
	ShowFull     bool
	Filter       string // JMESPath filter expression
	Query        string // JMESPath query or $(shell command)
	// Variables overrides the tab's variables for this run only
	Variables string
}

// runOutput is the structured form of a run printed with -o json|yaml
type runOutput struct {
	Tab    string         `json:"tab" yaml:"tab"`
	URL    string         `json:"url" yaml:"url"`
	Result *client.Result `json:"result" yaml:"result"`
	Errors []string       `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Run executes a tab and prints its response
func Run(ctx context.Context, app *App, opts RunOptions) error {
	tab, err := app.tab(opts.TabID)
	if err != nil {
		return err
	}

	settings := tab.Settings()
	if strings.TrimSpace(settings.Query) == "" {
		return fmt.Errorf("tab %s has no query", settings.ID)
	}

	filterOpts := filter.Options{Filter: opts.Filter, Query: opts.Query}
	if err := filter.Validate(filterOpts); err != nil {
		return err
	}

	target := client.TargetFor(settings)
	request := client.RequestFor(settings)
	if opts.Variables != "" {
		request.Variables = opts.Variables
	}

	result, err := app.Client.Execute(ctx, target, request)
	app.record(settings.ID, target, request, result, err)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}

	if _, err := app.Workspace.RememberURL(target.URL); err != nil {
		app.Logger.Warn("failed to remember url", zap.Error(err))
	}

	if !filterOpts.Empty() {
		filtered, err := filter.Apply(ctx, result.Body, filterOpts)
		if err != nil {
			fmt.Fprintf(app.Err, "Warning: filter/query error: %v\n", err)
		} else {
			result.Body = filtered
		}
	}

	format := opts.OutputFormat
	if format == "" {
		format = OutputText
		if f, ok := app.Out.(*os.File); ok && !isTerminal(f) {
			// piped output gets the body only
			format = OutputBody
		}
	}

	out := runOutput{Tab: settings.ID, URL: target.URL, Result: result, Errors: result.Errors()}
	w := app.Out
	var file *os.File
	if opts.SavePath != "" {
		file, err = os.OpenFile(opts.SavePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, config.FilePermissions)
		if err != nil {
			return fmt.Errorf("failed to save response: %w", err)
		}
		defer file.Close()
		w = file
	}

	err = write(w, format, out, func(w io.Writer) error {
		return writeResult(w, result, format == OutputBody, opts.ShowFull)
	})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if file != nil {
		fmt.Fprintf(app.Err, "Response saved to %s\n", opts.SavePath)
	}

	if !client.IsSuccessStatus(result.Status) || len(out.Errors) > 0 {
		return ErrRequestFailed
	}
	return nil
}

// writeResult prints a result as text: status, timing and body
func writeResult(w io.Writer, result *client.Result, bodyOnly, showFull bool) error {
	if bodyOnly {
		_, err := fmt.Fprintln(w, result.Pretty())
		return err
	}

	var sb strings.Builder

	statusColor := getStatusColor(result.Status)
	sb.WriteString(fmt.Sprintf("%s%s%s\n", statusColor, result.StatusText, colorReset))
	sb.WriteString(fmt.Sprintf("Duration: %s | Size: %s\n",
		client.FormatDuration(result.Duration),
		client.FormatSize(result.ResponseSize)))

	if showFull && len(result.Headers) > 0 {
		sb.WriteString("\nHeaders:\n")
		for key, value := range result.Headers {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", key, value))
		}
	}

	if result.Body != "" {
		sb.WriteString("\n")
		sb.WriteString(result.Pretty())
		sb.WriteString("\n")
	}

	for _, msg := range result.Errors() {
		sb.WriteString(fmt.Sprintf("\n%sError: %s%s\n", colorRed, msg, colorReset))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// record saves a run in the query history. Failures only warn.
func (a *App) record(tabID string, target client.Target, request client.Request, result *client.Result, runErr error) {
	if a.History == nil {
		return
	}

	entry := history.Entry{
		TabID:         tabID,
		URL:           target.URL,
		Proxy:         target.Proxy,
		OperationName: request.OperationName,
		Query:         request.Query,
		Variables:     request.Variables,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	} else {
		entry.Status = result.Status
		entry.Duration = result.Duration
		entry.ResponseSize = result.ResponseSize
		if errs := result.Errors(); len(errs) > 0 {
			entry.Error = strings.Join(errs, "; ")
		}
	}

	if _, err := a.History.Save(entry); err != nil {
		fmt.Fprintf(a.Err, "Warning: failed to save history: %v\n", err)
	}
}
