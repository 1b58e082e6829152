package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/studiowebux/gqlws/internal/client"
	"github.com/studiowebux/gqlws/internal/gql"
)

// ReadInput reads path, or stdin when path is "" or "-"
func ReadInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		if f, ok := stdin.(*os.File); ok && isTerminal(f) {
			return "", fmt.Errorf("no input (pass a file or pipe it on stdin)")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// FormatOptions selects how `format` runs
type FormatOptions struct {
	// Local skips the format server
	Local   bool
	// Schema treats the input as SDL; SDL is always formatted locally
	Schema  bool
	// TabID picks the tab whose query InPlace formats
	TabID   string
	// InPlace formats a tab query instead of the input and saves it
	InPlace bool
}

// Format pretty-prints a query document
func Format(ctx context.Context, app *App, input string, opts FormatOptions) error {
	if opts.InPlace {
		tab, err := app.tab(opts.TabID)
		if err != nil {
			return err
		}
		input = tab.Settings().Query

		formatted, err := formatDocument(ctx, app.Client, input, opts)
		if err != nil {
			return err
		}
		if err := tab.SetQuery(formatted); err != nil {
			return err
		}
		_, err = fmt.Fprint(app.Out, formatted)
		return err
	}

	formatted, err := formatDocument(ctx, app.Client, input, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(app.Out, formatted)
	return err
}

func formatDocument(ctx context.Context, c *client.Client, input string, opts FormatOptions) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("nothing to format")
	}

	switch {
	case opts.Schema:
		return gql.FormatSchema(input)
	case opts.Local:
		return gql.Format(input)
	default:
		formatted, err := c.Format(ctx, input)
		if err != nil {
			return "", fmt.Errorf("%s", errorText(err))
		}
		return formatted, nil
	}
}

// RenderSchema prints the schema documentation rendered by the server
func RenderSchema(ctx context.Context, app *App) error {
	rendered, err := app.Client.RenderSchema(ctx)
	if err != nil {
		return fmt.Errorf("%s", errorText(err))
	}
	_, err = fmt.Fprintln(app.Out, rendered)
	return err
}

// ProxyOptions are the inputs of the materialization proxy
type ProxyOptions struct {
	Query     string
	Schema    string
	Variables string
}

// Proxy runs a query against a schema on the server's materialization proxy
// and prints its data or its error
func Proxy(ctx context.Context, app *App, opts ProxyOptions, format string) error {
	var variables json.RawMessage
	if strings.TrimSpace(opts.Variables) != "" {
		normalized, err := client.NormalizeVariables(opts.Variables)
		if err != nil {
			return err
		}
		variables = normalized
	}

	result, err := app.Client.Proxy(ctx, client.ProxyRequest{
		Query:     opts.Query,
		Schema:    opts.Schema,
		Variables: variables,
	})
	if result == nil {
		return err
	}

	if werr := write(app.Out, format, result, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, result.Display())
		return err
	}); werr != nil {
		return werr
	}
	return err
}
