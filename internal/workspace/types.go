package workspace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/studiowebux/gqlws/internal/config"
	"github.com/studiowebux/gqlws/internal/state"
)

const (
	// DefaultMaxTabHistory caps the closed-tab history
	DefaultMaxTabHistory = 20
	// DefaultMaxURLHistory caps the used-URL history
	DefaultMaxURLHistory = 20
	// MaxRecentHeaders caps the recent-header history
	MaxRecentHeaders = 20
)

var (
	// ErrTabNotFound is returned when no live tab has the requested id
	ErrTabNotFound = errors.New("tab not found")
	// ErrNoKey is returned when a snapshot carries no workspace key
	ErrNoKey = errors.New("snapshot has no workspace key")
	// ErrInvalidKey is returned for a workspace key that could overlap the
	// storage keys of another workspace or of a tab
	ErrInvalidKey = errors.New("invalid workspace key")
	// ErrFrozen is returned when tabs are added, closed or reopened after Cleanup
	ErrFrozen = errors.New("workspace has been erased")
)

// ValidateKey rejects keys holding the field separator or a dot. Storage keys
// are "<key>-<field>" and tabs live under "<key>.tab<id>", so "dev-2" or
// "dev.tab1" would share keys with "dev".
func ValidateKey(key string) error {
	if key == "" || strings.ContainsAny(key, state.Separator+".") {
		return fmt.Errorf("%w %q (no '-' or '.')", ErrInvalidKey, key)
	}
	return nil
}

// Header is one HTTP header name/value pair
type Header struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// ParseHeader reads a "Name: Value" header
func ParseHeader(text string) (Header, error) {
	name, value, ok := strings.Cut(text, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Header{}, fmt.Errorf("invalid header %q (use Name: Value)", text)
	}
	return Header{Name: name, Value: strings.TrimSpace(value)}, nil
}

// TabSettings is the persisted form of a tab. Closed tabs and exports carry it.
type TabSettings struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	URL           string   `json:"url" yaml:"url"`
	Proxy         bool     `json:"proxy" yaml:"proxy"`
	Headers       []Header `json:"headers" yaml:"headers"`
	Query         string   `json:"query,omitempty" yaml:"query,omitempty"`
	Variables     string   `json:"variables,omitempty" yaml:"variables,omitempty"`
	OperationName string   `json:"operationName,omitempty" yaml:"operationName,omitempty"`
}

// Settings is the persisted form of a workspace
type Settings struct {
	Key            string        `json:"key" yaml:"key"`
	LastID         int           `json:"lastId" yaml:"lastId"`
	TabIDs         []string      `json:"tabIds" yaml:"tabIds"`
	ClosedTabs     []TabSettings `json:"closedTabs" yaml:"closedTabs"`
	DefaultURL     string        `json:"defaultUrl" yaml:"defaultUrl"`
	DefaultProxy   bool          `json:"defaultProxy" yaml:"defaultProxy"`
	DefaultHeaders []Header      `json:"defaultHeaders" yaml:"defaultHeaders"`
	UsedURLs       []string      `json:"usedUrls" yaml:"usedUrls"`
	RecentHeaders  []Header      `json:"recentHeaders" yaml:"recentHeaders"`
	MaxTabHistory  int           `json:"maxTabHistory" yaml:"maxTabHistory"`
	MaxURLHistory  int           `json:"maxUrlHistory" yaml:"maxUrlHistory"`
	ActiveID       string        `json:"activeId,omitempty" yaml:"activeId,omitempty"`
}

// Snapshot is an exported workspace: its settings plus every live tab
type Snapshot struct {
	Settings `yaml:",inline"`
	Tabs     []TabSettings `json:"tabs" yaml:"tabs"`
}

// DefaultSettings returns the settings of a brand new workspace
func DefaultSettings(key string) Settings {
	return Settings{
		Key:            key,
		LastID:         0,
		TabIDs:         []string{},
		ClosedTabs:     []TabSettings{},
		DefaultURL:     config.DefaultEndpoint,
		DefaultProxy:   false,
		DefaultHeaders: []Header{},
		UsedURLs:       []string{},
		RecentHeaders:  []Header{},
		MaxTabHistory:  DefaultMaxTabHistory,
		MaxURLHistory:  DefaultMaxURLHistory,
	}
}

func cloneHeaders(headers []Header) []Header {
	if headers == nil {
		return []Header{}
	}
	out := make([]Header, len(headers))
	copy(out, headers)
	return out
}

func cloneTabSettings(t TabSettings) TabSettings {
	t.Headers = cloneHeaders(t.Headers)
	return t
}

func (s Settings) clone() Settings {
	s.TabIDs = append([]string{}, s.TabIDs...)
	closed := make([]TabSettings, len(s.ClosedTabs))
	for i, t := range s.ClosedTabs {
		closed[i] = cloneTabSettings(t)
	}
	s.ClosedTabs = closed
	s.DefaultHeaders = cloneHeaders(s.DefaultHeaders)
	s.UsedURLs = append([]string{}, s.UsedURLs...)
	s.RecentHeaders = cloneHeaders(s.RecentHeaders)
	return s
}
