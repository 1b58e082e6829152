package tui

import (
	"context"

	"github.com/studiowebux/gqlws/internal/client"
	"github.com/studiowebux/gqlws/internal/gql"
)

// formatTickMsg fires once typing has paused. It carries the context of its
// format generation, which is cancelled when the user types again.
type formatTickMsg struct {
	gen   uint64
	ctx   context.Context
	tabID string
	query string
}

// formattedMsg carries the outcome of a format. replace marks an explicit
// format whose output goes back into the editor.
type formattedMsg struct {
	gen     uint64
	tabID   string
	query   string
	text    string
	err     error
	replace bool
}

type executedMsg struct {
	gen     uint64
	tabID   string
	target  client.Target
	request client.Request
	result  *client.Result
	err     error
}

type introspectedMsg struct {
	gen    uint64
	tabID  string
	schema *gql.Schema
	err    error
}
