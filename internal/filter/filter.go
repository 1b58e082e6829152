// Package filter narrows GraphQL responses with JMESPath expressions or a
// shell pipeline.
package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"
)

// DefaultShellTimeout bounds a $(command) query
const DefaultShellTimeout = 30 * time.Second

var shellPattern = regexp.MustCompile(`^\$\((.+)\)$`)

// Options selects part of a response.
// Filter narrows results (e.g. data.users[?role==`ADMIN`]).
// Query transforms them (e.g. [].name) or, written as $(command), pipes the
// filtered JSON through sh.
type Options struct {
	Filter       string
	Query        string
	ShellTimeout time.Duration
}

// Empty reports whether the options leave a body untouched
func (o Options) Empty() bool {
	return o.Filter == "" && o.Query == ""
}

// Apply runs the filter, then the query, over a JSON body
func Apply(ctx context.Context, body string, opts Options) (string, error) {
	result := body

	if opts.Filter != "" {
		filtered, err := search(result, opts.Filter)
		if err != nil {
			return "", fmt.Errorf("failed to apply filter: %w", err)
		}
		result = filtered
	}

	if opts.Query == "" {
		return result, nil
	}

	if matches := shellPattern.FindStringSubmatch(opts.Query); len(matches) > 1 {
		timeout := opts.ShellTimeout
		if timeout <= 0 {
			timeout = DefaultShellTimeout
		}
		queried, err := runShell(ctx, result, matches[1], timeout)
		if err != nil {
			return "", fmt.Errorf("failed to execute query shell command: %w", err)
		}
		return queried, nil
	}

	queried, err := search(result, opts.Query)
	if err != nil {
		return "", fmt.Errorf("failed to apply query: %w", err)
	}
	return queried, nil
}

func search(body string, expression string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return "", fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return "", fmt.Errorf("JMESPath search failed: %w", err)
	}
	if result == nil {
		return "null", nil
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(output), nil
}

func runShell(ctx context.Context, body string, command string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = strings.NewReader(body)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := err.Error()
		if stderr.Len() > 0 {
			msg = strings.TrimSpace(stderr.String())
		}
		return "", fmt.Errorf("command '%s' failed: %s", command, msg)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Validate checks the JMESPath syntax of both expressions. Shell queries are
// not checked.
func Validate(opts Options) error {
	if opts.Filter != "" {
		if _, err := jmespath.Compile(opts.Filter); err != nil {
			return fmt.Errorf("invalid filter: %w", err)
		}
	}
	if opts.Query != "" && !IsShellCommand(opts.Query) {
		if _, err := jmespath.Compile(opts.Query); err != nil {
			return fmt.Errorf("invalid query: %w", err)
		}
	}
	return nil
}

// IsShellCommand checks if a query is a shell command (starts with $(...))
func IsShellCommand(query string) bool {
	return shellPattern.MatchString(query)
}
