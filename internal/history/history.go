// Package history records executed queries in the workspace database.
package history

import "time"

// Entry is one executed query
type Entry struct {
	ID            int64     `json:"id" yaml:"id"`
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
	Workspace     string    `json:"workspace" yaml:"workspace"`
	TabID         string    `json:"tabId" yaml:"tabId"`
	URL           string    `json:"url" yaml:"url"`
	Proxy         bool      `json:"proxy" yaml:"proxy"`
	OperationName string    `json:"operationName,omitempty" yaml:"operationName,omitempty"`
	Query         string    `json:"query" yaml:"query"`
	Variables     string    `json:"variables,omitempty" yaml:"variables,omitempty"`
	Status        int       `json:"status" yaml:"status"`
	Duration      int64     `json:"durationMs" yaml:"durationMs"`
	ResponseSize  int       `json:"responseSize" yaml:"responseSize"`
	Error         string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the query did not get a successful response
func (e Entry) Failed() bool {
	return e.Error != "" || e.Status < 200 || e.Status >= 300
}
