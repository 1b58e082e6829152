package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studiowebux/gqlws/internal/cli"
	"github.com/studiowebux/gqlws/internal/config"
)

var tabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "List and edit the tabs of the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.ListTabs(app, flagOutput)
		})
	},
}

var tabsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tabs, the active one marked with *",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.ListTabs(app, flagOutput)
		})
	},
}

var tabsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Open a new tab with the workspace defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.AddTab(app, flagOutput)
		})
	},
}

var tabsCloseCmd = &cobra.Command{
	Use:   "close [id]",
	Short: "Close a tab (the active one by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.CloseTab(app, optionalArg(args))
		})
	},
}

var tabsReopenCmd = &cobra.Command{
	Use:   "reopen",
	Short: "Reopen the most recently closed tab",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.ReopenTab(app, flagOutput)
		})
	},
}

var tabsActivateCmd = &cobra.Command{
	Use:   "activate [id]",
	Short: "Make a tab active; without an id, pick it interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			id := optionalArg(args)
			if id == "" {
				selected, err := cli.SelectTab(app.Workspace)
				if err != nil {
					return err
				}
				id = selected
			}
			return cli.ActivateTab(app, id)
		})
	},
}

// Flags for tabs set
var (
	setName          string
	setURL           string
	setProxy         bool
	setQuery         string
	setQueryFile     string
	setVariables     string
	setVariablesFile string
	setOperation     string
	setHeaders       []string
)

var tabsSetCmd = &cobra.Command{
	Use:   "set [id]",
	Short: "Change a tab (the active one by default)",
	Long: `Change the name, endpoint, proxy mode, headers, query or variables of a tab.
Only the flags given are changed. --header replaces every header of the tab
and can be repeated; pass --header "" to remove them all.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()

		var update cli.TabUpdate
		if flags.Changed("name") {
			update.Name = &setName
		}
		if flags.Changed("url") {
			update.URL = &setURL
		}
		if flags.Changed("proxy") {
			update.Proxy = &setProxy
		}
		if flags.Changed("operation") {
			update.OperationName = &setOperation
		}
		if flags.Changed("header") {
			update.Headers = []string{}
			for _, h := range setHeaders {
				if h != "" {
					update.Headers = append(update.Headers, h)
				}
			}
		}

		query, err := textFlag(flags.Changed("query"), setQuery, setQueryFile)
		if err != nil {
			return err
		}
		update.Query = query

		variables, err := textFlag(flags.Changed("variables"), setVariables, setVariablesFile)
		if err != nil {
			return err
		}
		update.Variables = variables

		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.SetTab(app, optionalArg(args), update, flagOutput)
		})
	},
}

var urlsMatch string

var urlsCmd = &cobra.Command{
	Use:   "urls",
	Short: "List recently used endpoint URLs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.ListURLs(app, urlsMatch, flagOutput)
		})
	},
}

var headersCmd = &cobra.Command{
	Use:   "headers",
	Short: "List recently used headers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.ListHeaders(app, flagOutput)
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the workspace as JSON or YAML",
	Long: `Export the workspace settings and every tab. The format is taken from -o,
then from the file extension; JSON is the default. Without a file the
export is written to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.Export(app, optionalArg(args), flagOutput)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace a workspace with an export",
	Long: `Import a workspace exported as JSON (comments allowed) or YAML. The
workspace named in the file is erased first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cli.ReadInput(args[0], os.Stdin)
		if err != nil {
			return err
		}
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.Import(app, []byte(data))
		})
	},
}

var cleanupYes bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Erase the workspace and its history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cleanupYes {
			return fmt.Errorf("this erases every tab of the workspace (pass --yes to confirm)")
		}
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.Cleanup(app)
		})
	},
}

// Flags for format
var (
	formatLocal   bool
	formatSchema  bool
	formatTab     string
	formatInPlace bool
)

var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Pretty-print a GraphQL document",
	Long: `Pretty-print a query read from a file or stdin. The tooling server formats
it unless --local is given. With --in-place the query of a tab is formatted
and saved back.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.FormatOptions{
			Local:   formatLocal,
			Schema:  formatSchema,
			TabID:   formatTab,
			InPlace: formatInPlace,
		}

		var input string
		if !formatInPlace {
			var err error
			input, err = cli.ReadInput(optionalArg(args), os.Stdin)
			if err != nil {
				return err
			}
		}

		return withApp(func(ctx context.Context, app *cli.App) error {
			return cli.Format(ctx, app, input, opts)
		})
	},
}

// Flags for introspect
var (
	introspectAll bool
	introspectSDL bool
)

var introspectCmd = &cobra.Command{
	Use:   "introspect [id]",
	Short: "Fetch the schema of a tab's endpoint",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.IntrospectOptions{TabID: optionalArg(args), All: introspectAll, SDL: introspectSDL}
		return withApp(func(ctx context.Context, app *cli.App) error {
			return cli.Introspect(ctx, app, opts, flagOutput)
		})
	},
}

// Flags for run
var (
	runSave          string
	runFull          bool
	runFilter        string
	runQuery         string
	runVariables     string
	runVariablesFile string
)

var runCmd = &cobra.Command{
	Use:   "run [id]",
	Short: "Execute the query of a tab (the active one by default)",
	Long: `Execute the query of a tab against its endpoint and print the response.
Use -o body to print the response body only (the default when piped).

--filter and --query are JMESPath expressions applied to the body in that
order. --query may also be $(command) to pipe the filtered JSON through a
shell command.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		variables, err := textFlag(cmd.Flags().Changed("variables"), runVariables, runVariablesFile)
		if err != nil {
			return err
		}

		opts := cli.RunOptions{
			TabID:        optionalArg(args),
			OutputFormat: flagOutput,
			SavePath:     runSave,
			ShowFull:     runFull,
			Filter:       runFilter,
			Query:        runQuery,
		}
		if variables != nil {
			opts.Variables = *variables
		}

		return withApp(func(ctx context.Context, app *cli.App) error {
			return cli.Run(ctx, app, opts)
		})
	},
}

// Flags for history
var (
	historyTab   string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List executed queries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.ListHistory(app, cli.HistoryOptions{TabID: historyTab, Limit: historyLimit}, flagOutput)
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the history of the workspace, or of one tab",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.ClearHistory(app, historyTab)
		})
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show call counts, success rate and timings per endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.HistoryStats(app, flagOutput)
		})
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the schema documentation rendered by the tooling server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *cli.App) error {
			return cli.RenderSchema(ctx, app)
		})
	},
}

// Flags for proxy
var (
	proxySchemaFile string
	proxyVariables  string
	proxyVarFile    string
)

var proxyCmd = &cobra.Command{
	Use:   "proxy [query-file]",
	Short: "Run a query against an SDL schema on the tooling server",
	Long: `Send a query and a schema to the tooling server, which materializes the
schema and runs the query against it. The query is read from the file or
stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if proxySchemaFile == "" {
			return fmt.Errorf("--schema is required")
		}
		schema, err := os.ReadFile(proxySchemaFile)
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
		query, err := cli.ReadInput(optionalArg(args), os.Stdin)
		if err != nil {
			return err
		}
		variables, err := textFlag(cmd.Flags().Changed("variables"), proxyVariables, proxyVarFile)
		if err != nil {
			return err
		}

		opts := cli.ProxyOptions{Query: query, Schema: string(schema)}
		if variables != nil {
			opts.Variables = *variables
		}

		return withApp(func(ctx context.Context, app *cli.App) error {
			return cli.Proxy(ctx, app, opts, flagOutput)
		})
	},
}

var keybindsForce bool

var keybindsCmd = &cobra.Command{
	Use:   "keybinds",
	Short: "Manage TUI key bindings",
}

var keybindsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the default key bindings to keybinds.json",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.ExportKeybinds(app, pathArg(args, config.KeybindsFile), keybindsForce)
		})
	},
}

var keybindsValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check keybinds.json for conflicts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(_ context.Context, app *cli.App) error {
			return cli.ValidateKeybinds(app, pathArg(args, config.KeybindsFile))
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		return cli.PrintSettings(os.Stdout, settings, flagOutput)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective settings to ~/.gqlws/config.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if err := config.Save(settings); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", config.ConfigFile)
		return nil
	},
}

func init() {
	tabsSetCmd.Flags().StringVar(&setName, "name", "", "Tab name")
	tabsSetCmd.Flags().StringVar(&setURL, "url", "", "Endpoint URL")
	tabsSetCmd.Flags().BoolVar(&setProxy, "proxy", false, "Send requests through the tooling server")
	tabsSetCmd.Flags().StringVar(&setQuery, "query", "", "Query text")
	tabsSetCmd.Flags().StringVar(&setQueryFile, "query-file", "", "Read the query from a file (- for stdin)")
	tabsSetCmd.Flags().StringVar(&setVariables, "variables", "", "Variables as JSON")
	tabsSetCmd.Flags().StringVar(&setVariablesFile, "variables-file", "", "Read the variables from a file")
	tabsSetCmd.Flags().StringVar(&setOperation, "operation", "", "Operation to run when the query has several")
	tabsSetCmd.Flags().StringArrayVarP(&setHeaders, "header", "H", []string{}, "Header (Name: Value), can be repeated")

	tabsCmd.AddCommand(tabsListCmd, tabsAddCmd, tabsCloseCmd, tabsReopenCmd, tabsActivateCmd, tabsSetCmd)

	urlsCmd.Flags().StringVarP(&urlsMatch, "match", "m", "", "Fuzzy filter")

	cleanupCmd.Flags().BoolVarP(&cleanupYes, "yes", "y", false, "Confirm")

	formatCmd.Flags().BoolVar(&formatLocal, "local", false, "Format without the tooling server")
	formatCmd.Flags().BoolVar(&formatSchema, "schema", false, "Input is SDL")
	formatCmd.Flags().StringVar(&formatTab, "tab", "", "Tab to format with --in-place (the active one by default)")
	formatCmd.Flags().BoolVarP(&formatInPlace, "in-place", "i", false, "Format the query of a tab and save it")

	introspectCmd.Flags().BoolVarP(&introspectAll, "all", "a", false, "Introspect every tab")
	introspectCmd.Flags().BoolVar(&introspectSDL, "sdl", false, "Print the schema as SDL")

	runCmd.Flags().StringVarP(&runSave, "save", "s", "", "Save response to file")
	runCmd.Flags().BoolVarP(&runFull, "full", "f", false, "Show full output (status, headers, body)")
	runCmd.Flags().StringVar(&runFilter, "filter", "", "JMESPath filter")
	runCmd.Flags().StringVarP(&runQuery, "query", "q", "", "JMESPath query or $(command)")
	runCmd.Flags().StringVar(&runVariables, "variables", "", "Variables for this run only")
	runCmd.Flags().StringVar(&runVariablesFile, "variables-file", "", "Read the variables for this run from a file")

	historyCmd.PersistentFlags().StringVarP(&historyTab, "tab", "t", "", "Only this tab")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries (0 for all)")
	historyCmd.AddCommand(historyClearCmd, historyStatsCmd)

	proxyCmd.Flags().StringVar(&proxySchemaFile, "schema", "", "SDL schema file")
	proxyCmd.Flags().StringVar(&proxyVariables, "variables", "", "Variables as JSON")
	proxyCmd.Flags().StringVar(&proxyVarFile, "variables-file", "", "Read the variables from a file")

	keybindsExportCmd.Flags().BoolVar(&keybindsForce, "force", false, "Overwrite an existing file")
	keybindsCmd.AddCommand(keybindsExportCmd, keybindsValidateCmd)

	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(
		tabsCmd,
		urlsCmd,
		headersCmd,
		exportCmd,
		importCmd,
		cleanupCmd,
		formatCmd,
		introspectCmd,
		runCmd,
		historyCmd,
		schemaCmd,
		proxyCmd,
		keybindsCmd,
		configCmd,
	)
}

func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func pathArg(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return fallback
}

// textFlag returns the inline value when set, else the content of file,
// else nil
func textFlag(set bool, inline, file string) (*string, error) {
	if set {
		return &inline, nil
	}
	if file == "" {
		return nil, nil
	}
	text, err := cli.ReadInput(file, os.Stdin)
	if err != nil {
		return nil, err
	}
	return &text, nil
}
