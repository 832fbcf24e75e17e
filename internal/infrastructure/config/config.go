// Package config loads spectree settings from a YAML file, SPECTREE_* environment
// variables and built-in defaults, in that order of precedence (env wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "SPECTREE"
	FileName  = "spectree"
)

// Tracker transports.
const (
	TransportMemory = "memory"
	TransportREST   = "rest"
	TransportMCP    = "mcp"
)

type Config struct {
	AI        AIConfig        `mapstructure:"ai" yaml:"ai"`
	Tracker   TrackerConfig   `mapstructure:"tracker" yaml:"tracker"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace"`
	Notify    NotifyConfig    `mapstructure:"notify" yaml:"notify"`
}

// AIConfig selects the text-generation provider. A Timeout of 0 leaves the
// generation call unbounded.
type AIConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
}

type TrackerConfig struct {
	Transport   string        `mapstructure:"transport" yaml:"transport"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Token       string        `mapstructure:"token" yaml:"token,omitempty"`
	MCPCommand  string        `mapstructure:"mcp_command" yaml:"mcp_command"`
	MCPArgs     []string      `mapstructure:"mcp_args" yaml:"mcp_args"`
	TeamKey     string        `mapstructure:"team_key" yaml:"team_key"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// WorkspaceConfig locates the .spectree directory holding the audit trail.
type WorkspaceConfig struct {
	Root  string `mapstructure:"root" yaml:"root"`
	Audit bool   `mapstructure:"audit" yaml:"audit"`
}

// NotifyConfig lists endpoints told about finished generation runs.
type NotifyConfig struct {
	Webhooks []WebhookConfig `mapstructure:"webhooks" yaml:"webhooks"`
}

// WebhookConfig is one outgoing notification endpoint. An empty Events list
// matches every run outcome.
type WebhookConfig struct {
	Name       string        `mapstructure:"name" yaml:"name"`
	URL        string        `mapstructure:"url" yaml:"url"`
	Format     string        `mapstructure:"format" yaml:"format"`
	Secret     string        `mapstructure:"secret" yaml:"secret,omitempty"`
	Events     []string      `mapstructure:"events" yaml:"events,omitempty"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries,omitempty"`
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay,omitempty"`
	Enabled    bool          `mapstructure:"enabled" yaml:"enabled"`
}

// Webhook payload formats.
const (
	FormatWebhook = "webhook"
	FormatSlack   = "slack"
)

func Default() *Config {
	return &Config{
		AI: AIConfig{
			Provider:    "ollama",
			Model:       "llama3",
			Timeout:     5 * time.Minute,
			MaxRetries:  2,
			RetryDelay:  time.Second,
			Temperature: 0.2,
		},
		Tracker: TrackerConfig{
			Transport:   TransportMemory,
			MCPArgs:     []string{},
			TeamKey:     "SPEC",
			Timeout:     30 * time.Second,
			MaxAttempts: 3,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  15,
			MaxBackups: 3,
		},
		Workspace: WorkspaceConfig{Root: ".", Audit: true},
		Notify:    NotifyConfig{Webhooks: []WebhookConfig{}},
	}
}

// SetDefaults registers every key so env overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.timeout", d.AI.Timeout)
	v.SetDefault("ai.max_retries", d.AI.MaxRetries)
	v.SetDefault("ai.retry_delay", d.AI.RetryDelay)
	v.SetDefault("ai.temperature", d.AI.Temperature)

	v.SetDefault("tracker.transport", d.Tracker.Transport)
	v.SetDefault("tracker.base_url", d.Tracker.BaseURL)
	v.SetDefault("tracker.token", d.Tracker.Token)
	v.SetDefault("tracker.mcp_command", d.Tracker.MCPCommand)
	v.SetDefault("tracker.mcp_args", d.Tracker.MCPArgs)
	v.SetDefault("tracker.team_key", d.Tracker.TeamKey)
	v.SetDefault("tracker.timeout", d.Tracker.Timeout)
	v.SetDefault("tracker.max_attempts", d.Tracker.MaxAttempts)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)

	v.SetDefault("metrics.addr", d.Metrics.Addr)

	v.SetDefault("workspace.root", d.Workspace.Root)
	v.SetDefault("workspace.audit", d.Workspace.Audit)

	v.SetDefault("notify.webhooks", d.Notify.Webhooks)
}

// NewViper returns a viper instance with defaults and env binding. When path is
// empty the config file is searched in the working directory and ConfigDir.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. A missing file is fine unless path names it.
func Load(path string) (*Config, error) {
	v := NewViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// ConfigDir returns the user's spectree config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spectree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".spectree"
	}
	return filepath.Join(home, ".config", "spectree")
}

// ConfigFile returns the default path written by `config init`.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), FileName+".yaml")
}
