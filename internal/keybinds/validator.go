package keybinds

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a keybinding validation error
type ValidationError struct {
	Type    string // "conflict", "invalid", "warning"
	Context Context
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s in context '%s': %s", e.Type, e.Key, e.Context, e.Message)
}

// ValidationResult contains all validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any errors
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// String returns a human-readable summary of validation results
func (r *ValidationResult) String() string {
	var sb strings.Builder

	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "Errors (%d):\n", len(r.Errors))
		for _, err := range r.Errors {
			fmt.Fprintf(&sb, "  - %s\n", err.Error())
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "Warnings (%d):\n", len(r.Warnings))
		for _, warn := range r.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", warn.Error())
		}
	}

	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		sb.WriteString("No issues found")
	}

	return sb.String()
}

// Validator validates keybinding configurations
type Validator struct {
	// reservedKeys must keep their global action
	reservedKeys map[string]Action
}

// NewValidator creates a new keybinding validator
func NewValidator() *Validator {
	return &Validator{
		reservedKeys: map[string]Action{
			"ctrl+c": ActionQuitForce,
		},
	}
}

// ValidateRegistry validates an entire registry
func (v *Validator) ValidateRegistry(registry *Registry) *ValidationResult {
	result := &ValidationResult{}

	for _, context := range registry.Contexts() {
		bindings := registry.bindings[context]
		keys := make([]string, 0, len(bindings))
		for key := range bindings {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			action := bindings[key]

			if !IsKnownAction(action) {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "invalid",
					Context: context,
					Key:     key,
					Message: fmt.Sprintf("unknown action %q", action),
				})
			}

			if reserved, ok := v.reservedKeys[key]; ok && action != reserved {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "conflict",
					Context: context,
					Key:     key,
					Message: fmt.Sprintf("reserved for %s", reserved),
				})
			}

			if isSequence(key) {
				if prefix := bindings[key[:1]]; prefix != ActionGoToTopPrepare {
					result.Warnings = append(result.Warnings, ValidationError{
						Type:    "warning",
						Context: context,
						Key:     key,
						Message: fmt.Sprintf("unreachable: %q does not start a key sequence", key[:1]),
					})
				}
			}

			if context == ContextGlobal {
				continue
			}
			if global, ok := registry.bindings[ContextGlobal][key]; ok && global != action {
				result.Warnings = append(result.Warnings, ValidationError{
					Type:    "warning",
					Context: context,
					Key:     key,
					Message: fmt.Sprintf("shadows global binding (%s -> %s)", global, action),
				})
			}
		}
	}

	return result
}

// isSequence reports whether key is a two-key sequence such as "gg" rather
// than a named key
func isSequence(key string) bool {
	if len(key) != 2 || strings.Contains(key, "+") || key == "up" {
		return false
	}
	if key[0] == 'f' && key[1] >= '0' && key[1] <= '9' {
		return false
	}
	return true
}

// ValidateKey checks if a key string is valid
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	for _, mod := range []string{"ctrl+", "alt+", "shift+", "super+"} {
		if key == mod {
			return fmt.Errorf("modifier without key: %s", key)
		}
	}

	return nil
}

// ValidateAction checks if an action string is valid
func ValidateAction(actionStr string) error {
	if actionStr == "" {
		return fmt.Errorf("action cannot be empty")
	}
	if !IsKnownAction(Action(actionStr)) {
		return fmt.Errorf("unknown action %q", actionStr)
	}
	return nil
}
