package keybinds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

// Config is the user's keybinds.json: per context, action -> comma
// separated keys. An action listed in a context loses its default keys there.
//
//	{
//	  "version": "1.0",
//	  "bindings": {
//	    "global": {"run": "ctrl+s,ctrl+enter"},
//	    "result": {"copy_result": "y"}
//	  }
//	}
type Config struct {
	Version  string                       `json:"version"`
	Bindings map[string]map[string]string `json:"bindings"`
}

// LoadConfig loads keybinding configuration from a JSON file. Comments and
// trailing commas are allowed.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
		return nil, fmt.Errorf("invalid keybinds.json format: %w", err)
	}

	return &config, nil
}

// SaveConfig saves keybinding configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyConfig applies user configuration to a registry. User bindings
// override default bindings.
func ApplyConfig(registry *Registry, config *Config) error {
	var errs []error

	for contextName, actions := range config.Bindings {
		context := Context(contextName)
		for actionName, keys := range actions {
			action := Action(actionName)
			if err := ValidateAction(actionName); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", contextName, err))
				continue
			}

			registry.Unbind(context, action)
			for _, key := range splitKeys(keys) {
				if err := ValidateKey(key); err != nil {
					errs = append(errs, fmt.Errorf("%s.%s: %w", contextName, actionName, err))
					continue
				}
				registry.Register(context, key, action)
			}
		}
	}

	return errors.Join(errs...)
}

func splitKeys(keys string) []string {
	var out []string
	for _, key := range strings.Split(keys, ",") {
		if key = strings.TrimSpace(key); key != "" {
			out = append(out, key)
		}
	}
	return out
}

// LoadOrDefault loads user config if it exists, otherwise returns default registry
func LoadOrDefault(configPath string) (*Registry, error) {
	registry := NewDefaultRegistry()

	if _, err := os.Stat(configPath); err != nil {
		return registry, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load keybinds.json: %w", err)
	}
	if err := ApplyConfig(registry, config); err != nil {
		return nil, fmt.Errorf("failed to apply keybinds config: %w", err)
	}

	return registry, nil
}

// ExportConfig writes every binding of registry in Config form, so users
// can start from the defaults
func ExportConfig(registry *Registry) *Config {
	config := &Config{Version: "1.0", Bindings: make(map[string]map[string]string)}

	for _, context := range registry.Contexts() {
		grouped := make(map[Action][]string)
		for key, action := range registry.bindings[context] {
			grouped[action] = append(grouped[action], key)
		}

		section := make(map[string]string, len(grouped))
		for action, keys := range grouped {
			sort.Strings(keys)
			section[string(action)] = strings.Join(keys, ",")
		}
		config.Bindings[string(context)] = section
	}

	return config
}
