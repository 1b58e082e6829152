package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/studiowebux/gqlws/internal/config"
	"github.com/studiowebux/gqlws/internal/workspace"
)

// Export writes the workspace snapshot to path, or to Out when path is empty.
// The format comes from format, then from the file extension.
func Export(app *App, path, format string) error {
	if format == "" || format == OutputText {
		format = filepath.Ext(path)
	}
	f, err := workspace.ParseFormat(format)
	if err != nil {
		return err
	}

	data, err := workspace.EncodeSnapshot(app.Workspace.Export(), f)
	if err != nil {
		return err
	}

	if path == "" {
		_, err = app.Out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, config.FilePermissions); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(app.Out, "Exported %s to %s\n", app.Workspace.Key(), path)
	return nil
}

// Import replaces a workspace with a snapshot. The workspace named in the
// snapshot is erased first so no stale tab survives. When it is the open
// workspace, the App switches to the imported one.
func Import(app *App, data []byte) error {
	snap, err := workspace.DecodeSnapshot(data)
	if err != nil {
		return err
	}

	existing := app.Workspace
	if existing.Key() != snap.Key {
		existing, err = workspace.Open(app.Store, snap.Key, workspaceOptions(app.Settings, app.Logger)...)
		if err != nil {
			return err
		}
	}
	if err := existing.Cleanup(); err != nil {
		return err
	}

	ws, err := workspace.FromSnapshot(app.Store, snap, workspaceOptions(app.Settings, app.Logger)...)
	if err != nil {
		return err
	}
	if app.Workspace.Key() == snap.Key {
		app.Workspace = ws
	}

	fmt.Fprintf(app.Out, "Imported %s (%d tabs)\n", snap.Key, len(ws.Tabs()))
	return nil
}

// Cleanup erases the open workspace and its query history
func Cleanup(app *App) error {
	key := app.Workspace.Key()
	if err := app.Workspace.Cleanup(); err != nil {
		return err
	}

	if app.History != nil {
		if _, err := app.History.Clear(""); err != nil {
			return err
		}
	}

	fmt.Fprintf(app.Out, "Erased workspace %s\n", key)
	return nil
}
