package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/studiowebux/gqlws/internal/cli"
	"github.com/studiowebux/gqlws/internal/config"
	"github.com/studiowebux/gqlws/internal/keybinds"
	"github.com/studiowebux/gqlws/internal/logging"
	"github.com/studiowebux/gqlws/internal/tui"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// run already printed the failed response
		if !errors.Is(err, cli.ErrRequestFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gqlws",
	Short: "gqlws - GraphQL workspace",
	Long: `gqlws is a multi-tab GraphQL workspace with an interactive TUI.

Tabs, their endpoints, headers, queries and variables are kept per workspace
in ~/.gqlws and restored on the next start. Run without arguments to start
the TUI, or use the subcommands to script the same workspace.

Examples:
  gqlws                                  # Start interactive TUI
  gqlws -w staging                       # Open the 'staging' workspace
  gqlws tabs set --url http://localhost:4000/graphql
  gqlws tabs set --query-file users.graphql --header "Authorization: Bearer x"
  gqlws run -o json                      # Run the active tab
  gqlws run 2 --filter data.users --query "[].name"
  gqlws introspect --all                 # Introspect every tab
  gqlws export workspace.yaml            # Save the workspace
  gqlws --help                           # Show help`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

// Global flags
var (
	flagOutput    string
	flagWorkspace string
	flagServer    string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output format (text/json/yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", "", "Workspace to open")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Tooling server URL (format, proxy, schema rendering)")
}

// loadSettings initializes ~/.gqlws and applies the global flags over the
// config file and the environment
func loadSettings() (*config.Settings, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagWorkspace != "" {
		settings.Workspace = flagWorkspace
	}
	if flagServer != "" {
		settings.ServerURL = flagServer
	}
	return settings, nil
}

// withApp opens the workspace, runs fn and closes it. Ctrl+C cancels ctx.
func withApp(fn func(ctx context.Context, app *cli.App) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	cfg := logging.DefaultConfig()
	cfg.Level = settings.LogLevel
	cfg.Development = settings.LogDev
	logger := logging.NewOrNop(cfg)
	defer logger.Sync()

	app, err := cli.Open(settings, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C for graceful cancellation
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nCancelled by user")
			cancel()
		case <-ctx.Done():
		}
	}()

	return fn(ctx, app)
}

// runTUI starts the interactive TUI. Logs go to a file while it owns the
// terminal.
func runTUI() error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	cfg := logging.FileConfig(settings.LogLevel, config.LogFile)
	cfg.Development = settings.LogDev
	logger := logging.NewOrNop(cfg)
	defer logger.Sync()

	registry, err := keybinds.LoadOrDefault(config.KeybindsFile)
	if err != nil {
		logger.Warn("falling back to default key bindings", zap.Error(err))
		registry = keybinds.NewDefaultRegistry()
	}

	app, err := cli.Open(settings, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return tui.Run(tui.Deps{
		Workspace: app.Workspace,
		Client:    app.Client,
		History:   app.History,
		Keybinds:  registry,
		Logger:    logger,
		Timeout:   settings.Timeout,
	})
}
