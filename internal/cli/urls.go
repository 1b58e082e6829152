package cli

import (
	"fmt"
	"io"

	"github.com/sahilm/fuzzy"
)

// ListURLs prints the recently used URLs, most recent first. A non-empty
// match keeps the URLs fuzzy-matching it, best match first.
func ListURLs(app *App, match, format string) error {
	urls := app.Workspace.UsedURLs()
	if match != "" {
		matches := fuzzy.Find(match, urls)
		urls = make([]string, 0, len(matches))
		for _, m := range matches {
			urls = append(urls, m.Str)
		}
	}
	if urls == nil {
		urls = []string{}
	}

	return write(app.Out, format, urls, func(w io.Writer) error {
		for _, u := range urls {
			fmt.Fprintln(w, u)
		}
		return nil
	})
}
