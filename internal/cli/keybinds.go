package cli

import (
	"fmt"
	"os"

	"github.com/studiowebux/gqlws/internal/keybinds"
)

// ExportKeybinds writes the default bindings to path so they can be edited.
// An existing file is kept unless force is set.
func ExportKeybinds(app *App, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := keybinds.SaveConfig(keybinds.ExportConfig(keybinds.NewDefaultRegistry()), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(app.Out, "Wrote default key bindings to %s\n", path)
	return nil
}

// ValidateKeybinds loads the bindings at path over the defaults and reports
// conflicts. It fails when the result has errors.
func ValidateKeybinds(app *App, path string) error {
	registry, err := keybinds.LoadOrDefault(path)
	if err != nil {
		return err
	}

	result := keybinds.NewValidator().ValidateRegistry(registry)
	fmt.Fprintln(app.Out, result.String())
	if result.HasErrors() {
		return fmt.Errorf("invalid key bindings in %s", path)
	}
	return nil
}
