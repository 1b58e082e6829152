// Package cli implements the non-interactive gqlws commands. Each command is
// a function over an App so it can be driven by cobra or by tests.
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/studiowebux/gqlws/internal/client"
	"github.com/studiowebux/gqlws/internal/config"
	"github.com/studiowebux/gqlws/internal/history"
	"github.com/studiowebux/gqlws/internal/storage"
	"github.com/studiowebux/gqlws/internal/workspace"
)

// App holds what a command needs: the open workspace and its collaborators
type App struct {
	Settings  *config.Settings
	Store     storage.Store
	Workspace *workspace.Workspace
	Client    *client.Client
	History   *history.Manager
	Logger    *zap.Logger

	Out io.Writer
	Err io.Writer

	db *sql.DB
}

// Open opens the database at config.DatabasePath and the workspace named by
// settings.Workspace
func Open(settings *config.Settings, logger *zap.Logger) (*App, error) {
	db, err := storage.OpenDatabase(config.DatabasePath)
	if err != nil {
		return nil, err
	}

	app, err := NewApp(settings, storage.NewSQLiteStore(db), history.NewManager(db, settings.Workspace), logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	app.db = db
	return app, nil
}

// NewApp builds an App over store. mgr may be nil to disable history.
func NewApp(settings *config.Settings, store storage.Store, mgr *history.Manager, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ws, err := workspace.Open(store, settings.Workspace, workspaceOptions(settings, logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace %s: %w", settings.Workspace, err)
	}

	return &App{
		Settings:  settings,
		Store:     store,
		Workspace: ws,
		Client:    client.New(settings.ServerURL, settings.Timeout, client.WithLogger(logger)),
		History:   mgr,
		Logger:    logger,
		Out:       os.Stdout,
		Err:       os.Stderr,
	}, nil
}

func workspaceOptions(settings *config.Settings, logger *zap.Logger) []workspace.Option {
	return []workspace.Option{
		workspace.WithLogger(logger),
		workspace.WithDefaultURL(settings.DefaultURL),
	}
}

// Close releases the database
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// tab resolves id, or the active tab when id is empty
func (a *App) tab(id string) (*workspace.Tab, error) {
	if id == "" {
		return a.Workspace.EnsureTab()
	}
	tab, ok := a.Workspace.Tab(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", workspace.ErrTabNotFound, id)
	}
	return tab, nil
}
