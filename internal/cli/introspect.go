package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/gqlws/internal/client"
	"github.com/studiowebux/gqlws/internal/gql"
	"github.com/studiowebux/gqlws/internal/workspace"
)

// maxParallelIntrospections bounds introspect --all
const maxParallelIntrospections = 4

// IntrospectionReport is the outcome of introspecting one tab
type IntrospectionReport struct {
	Tab       string   `json:"tab" yaml:"tab"`
	URL       string   `json:"url" yaml:"url"`
	Types     int      `json:"types" yaml:"types"`
	Queries   []string `json:"queries,omitempty" yaml:"queries,omitempty"`
	Mutations []string `json:"mutations,omitempty" yaml:"mutations,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`

	schema *gql.Schema
}

// IntrospectOptions selects the tabs to introspect
type IntrospectOptions struct {
	TabID string
	All   bool
	// SDL prints the rebuilt schema of a single tab instead of a summary
	SDL bool
}

// Introspect fetches the schema of one tab, or of every tab concurrently.
// One tab failing does not stop the others.
func Introspect(ctx context.Context, app *App, opts IntrospectOptions, format string) error {
	var tabs []*workspace.Tab
	if opts.All {
		tabs = app.Workspace.Tabs()
	} else {
		tab, err := app.tab(opts.TabID)
		if err != nil {
			return err
		}
		tabs = []*workspace.Tab{tab}
	}

	reports := introspectTabs(ctx, app.Client, tabs)

	if opts.SDL && len(reports) == 1 {
		r := reports[0]
		if r.schema == nil {
			return fmt.Errorf("introspection of tab %s failed: %s", r.Tab, r.Error)
		}
		_, err := fmt.Fprint(app.Out, r.schema.SDL)
		return err
	}

	err := write(app.Out, format, reports, func(w io.Writer) error {
		for _, r := range reports {
			if r.Error != "" {
				fmt.Fprintf(w, "%s%-4s %s%s\n     %s\n", colorRed, r.Tab, r.URL, colorReset, r.Error)
				continue
			}
			fmt.Fprintf(w, "%s%-4s %s%s\n     %d types, %d queries, %d mutations\n",
				colorGreen, r.Tab, r.URL, colorReset, r.Types, len(r.Queries), len(r.Mutations))
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, r := range reports {
		if r.Error != "" {
			return fmt.Errorf("introspection failed for %d tab(s)", countFailed(reports))
		}
	}
	return nil
}

func introspectTabs(ctx context.Context, c *client.Client, tabs []*workspace.Tab) []IntrospectionReport {
	reports := make([]IntrospectionReport, len(tabs))

	var g errgroup.Group
	g.SetLimit(maxParallelIntrospections)

	for i, tab := range tabs {
		i := i
		settings := tab.Settings()
		reports[i] = IntrospectionReport{Tab: settings.ID, URL: settings.URL}

		g.Go(func() error {
			schema, err := c.Introspect(ctx, client.TargetFor(settings))
			if err != nil {
				reports[i].Error = errorText(err)
				return nil
			}
			reports[i].schema = schema
			reports[i].Types = len(schema.TypeNames())
			reports[i].Queries = schema.Queries()
			reports[i].Mutations = schema.Mutations()
			return nil
		})
	}
	g.Wait()

	return reports
}

func countFailed(reports []IntrospectionReport) int {
	n := 0
	for _, r := range reports {
		if r.Error != "" {
			n++
		}
	}
	return n
}

// errorText is the message to print for err; server messages are verbatim
func errorText(err error) string {
	var se *client.ServerError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
