package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is an export encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a flag value or file extension to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "", "json", "jsonc":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use json or yaml)", s)
	}
}

// EncodeSnapshot serialises snap
func EncodeSnapshot(snap Snapshot, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		return data, nil
	}
}

// DecodeSnapshot parses an exported workspace. JSON may contain comments and
// trailing commas; anything that does not look like JSON is read as YAML.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot

	trimmed := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return snap, fmt.Errorf("failed to parse snapshot: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	if snap.Key == "" {
		return snap, ErrNoKey
	}
	return snap, nil
}
