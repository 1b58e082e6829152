package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/gqlws/internal/config"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
	// OutputBody prints only the response body of run
	OutputBody = "body"
)

// ANSI color codes
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorGray   = "\x1b[90m"
)

func getStatusColor(status int) string {
	if status >= 200 && status < 300 {
		return colorGreen
	} else if status >= 400 || status == 0 {
		return colorRed
	}
	return colorYellow
}

// write prints v as json or yaml; any other format calls text
func write(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case OutputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case OutputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err

	case "", OutputText, OutputBody:
		return text(w)

	default:
		return fmt.Errorf("unsupported output format: %s (use text, json or yaml)", format)
	}
}

// isTerminal reports whether f is a character device
func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// PrintSettings prints the effective settings
func PrintSettings(w io.Writer, settings *config.Settings, format string) error {
	return write(w, format, settings, func(w io.Writer) error {
		fmt.Fprintf(w, "Workspace:   %s\n", settings.Workspace)
		fmt.Fprintf(w, "Server:      %s\n", settings.ServerURL)
		fmt.Fprintf(w, "Default URL: %s\n", settings.DefaultURL)
		fmt.Fprintf(w, "Timeout:     %s\n", settings.Timeout)
		fmt.Fprintf(w, "Log level:   %s\n", settings.LogLevel)
		fmt.Fprintf(w, "Database:    %s\n", config.DatabasePath)
		return nil
	})
}
