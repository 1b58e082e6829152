package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// DefaultWorkspace is the namespace used when none is given
	DefaultWorkspace = "graphiql"
	// DefaultEndpoint seeds the default URL of new tabs
	DefaultEndpoint = "http://try.sangria-graphql.org/graphql"
	// DefaultServerURL is the companion server hosting /format-query, /graphql-proxy and /render-schema
	DefaultServerURL = "http://localhost:8080"
	// DefaultTimeout bounds every HTTP call and every task queue submission
	DefaultTimeout = 30 * time.Second
)

var (
	// ConfigDir is the global configuration directory (~/.gqlws)
	ConfigDir string

	// DatabasePath is the SQLite database holding the durable store and query history
	DatabasePath string

	// ConfigFile is the optional YAML settings file
	ConfigFile string

	// KeybindsFile is the optional keybinding override file
	KeybindsFile string

	// LogFile receives logs while the TUI owns the terminal
	LogFile string
)

// Settings holds user configurable values.
// Values are read from config.yaml first, then overridden by GQLWS_* environment variables.
type Settings struct {
	Workspace  string        `yaml:"workspace" envconfig:"WORKSPACE"`
	ServerURL  string        `yaml:"serverUrl" envconfig:"SERVER_URL"`
	DefaultURL string        `yaml:"defaultUrl" envconfig:"DEFAULT_URL"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	LogLevel   string        `yaml:"logLevel" envconfig:"LOG_LEVEL"`
	LogDev     bool          `yaml:"logDev" envconfig:"LOG_DEV"`
}

// Default returns the built-in settings
func Default() *Settings {
	return &Settings{
		Workspace:  DefaultWorkspace,
		ServerURL:  DefaultServerURL,
		DefaultURL: DefaultEndpoint,
		Timeout:    DefaultTimeout,
		LogLevel:   "info",
	}
}

// Initialize sets up the configuration directory
// It creates ~/.gqlws/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	return InitializeAt(filepath.Join(homeDir, ".gqlws"))
}

// InitializeAt sets the global paths relative to dir and creates it
func InitializeAt(dir string) error {
	ConfigDir = dir
	DatabasePath = filepath.Join(ConfigDir, "gqlws.db")
	ConfigFile = filepath.Join(ConfigDir, "config.yaml")
	KeybindsFile = filepath.Join(ConfigDir, "keybinds.json")
	LogFile = filepath.Join(ConfigDir, "gqlws.log")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	return nil
}

// Load reads settings from the config file (if present) and the environment
func Load() (*Settings, error) {
	settings := Default()

	if ConfigFile != "" {
		if err := loadFile(ConfigFile, settings); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("gqlws", settings); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}
	if settings.Workspace == "" {
		settings.Workspace = DefaultWorkspace
	}

	return settings, nil
}

func loadFile(path string, settings *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// Save writes settings to the config file
func Save(settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(ConfigFile, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
