package cli

import (
	"fmt"
	"io"

	"github.com/studiowebux/gqlws/internal/gql"
	"github.com/studiowebux/gqlws/internal/workspace"
)

// TabInfo is a tab as listed by the CLI
type TabInfo struct {
	workspace.TabSettings `yaml:",inline"`
	Active                bool `json:"active" yaml:"active"`
}

// ListTabs prints the live tabs in order
func ListTabs(app *App, format string) error {
	active := app.Workspace.ActiveID()

	var tabs []TabInfo
	for _, tab := range app.Workspace.Tabs() {
		tabs = append(tabs, TabInfo{TabSettings: tab.Settings(), Active: tab.ID() == active})
	}

	return write(app.Out, format, tabs, func(w io.Writer) error {
		if len(tabs) == 0 {
			fmt.Fprintln(w, "No tabs")
			return nil
		}
		for _, t := range tabs {
			marker := " "
			if t.Active {
				marker = "*"
			}
			proxy := ""
			if t.Proxy {
				proxy = " [proxy]"
			}
			fmt.Fprintf(w, "%s %-4s %-20s %s%s\n", marker, t.ID, t.Name, t.URL, proxy)
		}
		return nil
	})
}

// AddTab opens a tab seeded from the workspace defaults
func AddTab(app *App, format string) error {
	tab, err := app.Workspace.AddTab()
	if err != nil {
		return err
	}
	return printTab(app, format, tab)
}

// CloseTab closes the tab with id, or the active tab when id is empty
func CloseTab(app *App, id string) error {
	tab, err := app.tab(id)
	if err != nil {
		return err
	}

	replacement, err := app.Workspace.RemoveTab(tab.ID())
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Closed tab %s\n", tab.ID())
	if replacement != nil {
		fmt.Fprintf(app.Out, "Opened tab %s\n", replacement.ID())
	}
	return nil
}

// ReopenTab restores the most recently closed tab
func ReopenTab(app *App, format string) error {
	tab, err := app.Workspace.ReopenTab()
	if err != nil {
		return err
	}
	if tab == nil {
		return fmt.Errorf("no closed tabs")
	}
	return printTab(app, format, tab)
}

// ActivateTab makes the tab with id the active one
func ActivateTab(app *App, id string) error {
	if err := app.Workspace.SetActive(id); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Active tab: %s\n", id)
	return nil
}

// TabUpdate lists the fields `tabs set` changes; nil fields are left alone.
// A new query also selects its operation unless OperationName is given.
type TabUpdate struct {
	Name          *string
	URL           *string
	Proxy         *bool
	Query         *string
	Variables     *string
	OperationName *string
	// Headers are "Name: Value" pairs replacing the tab's headers
	Headers []string
}

// SetTab updates the tab with id, or the active tab when id is empty
func SetTab(app *App, id string, update TabUpdate, format string) error {
	tab, err := app.tab(id)
	if err != nil {
		return err
	}

	if update.Name != nil {
		if err := tab.SetName(*update.Name); err != nil {
			return err
		}
	}
	if update.URL != nil {
		if err := tab.SetURL(*update.URL); err != nil {
			return err
		}
		if _, err := app.Workspace.RememberURL(*update.URL); err != nil {
			return err
		}
	}
	if update.Proxy != nil {
		if err := tab.SetProxy(*update.Proxy); err != nil {
			return err
		}
	}
	if update.Query != nil {
		if err := tab.SetQuery(*update.Query); err != nil {
			return err
		}
		if update.OperationName == nil {
			current := tab.Settings().OperationName
			if op := gql.SelectOperation(*update.Query, current); op != current {
				if err := tab.SetOperationName(op); err != nil {
					return err
				}
			}
		}
	}
	if update.Variables != nil {
		if err := tab.SetVariables(*update.Variables); err != nil {
			return err
		}
	}
	if update.OperationName != nil {
		if err := tab.SetOperationName(*update.OperationName); err != nil {
			return err
		}
	}
	if update.Headers != nil {
		headers, err := ParseHeaders(update.Headers)
		if err != nil {
			return err
		}
		if err := tab.SetHeaders(headers); err != nil {
			return err
		}
		for _, h := range headers {
			if _, err := app.Workspace.RememberHeader(h); err != nil {
				return err
			}
		}
	}

	return printTab(app, format, tab)
}

// ParseHeaders reads "Name: Value" pairs
func ParseHeaders(values []string) ([]workspace.Header, error) {
	headers := make([]workspace.Header, 0, len(values))
	for _, v := range values {
		h, err := workspace.ParseHeader(v)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, nil
}

func printTab(app *App, format string, tab *workspace.Tab) error {
	info := TabInfo{TabSettings: tab.Settings(), Active: tab.ID() == app.Workspace.ActiveID()}
	return write(app.Out, format, info, func(w io.Writer) error {
		fmt.Fprintf(w, "Tab %s (%s)\n", info.ID, info.Name)
		fmt.Fprintf(w, "  URL:     %s\n", info.URL)
		fmt.Fprintf(w, "  Proxy:   %t\n", info.Proxy)
		for _, h := range info.Headers {
			fmt.Fprintf(w, "  Header:  %s: %s\n", h.Name, h.Value)
		}
		if info.OperationName != "" {
			fmt.Fprintf(w, "  Operation: %s\n", info.OperationName)
		}
		return nil
	})
}

// ListHeaders prints the recently used headers
func ListHeaders(app *App, format string) error {
	headers := app.Workspace.RecentHeaders()
	return write(app.Out, format, headers, func(w io.Writer) error {
		for _, h := range headers {
			fmt.Fprintf(w, "%s: %s\n", h.Name, h.Value)
		}
		return nil
	})
}
