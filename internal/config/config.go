// Package config provides YAML-based configuration loading for GhostHub.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level GhostHub configuration, loaded from config.yaml.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Model     ModelConfig     `yaml:"model"`
	Slack     SlackConfig     `yaml:"slack"`
	Discord   DiscordConfig   `yaml:"discord"`
	GitHub    GitHubConfig    `yaml:"github"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DatabaseConfig selects the persistence backend. The default is a local
// sqlite file; mysql is supported for shared deployments.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" (default) or "mysql"
	Path     string `yaml:"path"`   // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ModelConfig holds settings for the generation capability.
type ModelConfig struct {
	Provider    string `yaml:"provider"` // "openai" or "ollama"
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	VisionModel string `yaml:"vision_model"` // defaults to Model
	TimeoutSecs int    `yaml:"timeout_secs"` // per-call timeout, 0 = none
}

// SlackConfig holds Slack Socket Mode credentials.
type SlackConfig struct {
	AppToken  string `yaml:"app_token"` // xapp-...
	BotToken  string `yaml:"bot_token"` // xoxb-...
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds Discord Gateway credentials.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// GitHubConfig identifies the repository drafts are published to.
type GitHubConfig struct {
	Owner     string `yaml:"owner"`
	Repo      string `yaml:"repo"`
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"` // read when Token is empty
}

// MonitorConfig tunes thread grouping and the pending-draft digest.
type MonitorConfig struct {
	FlushSecs   int    `yaml:"flush_secs"`   // thread inactivity window
	MaxThread   int    `yaml:"max_thread"`   // flush a thread at this size
	DigestCron  string `yaml:"digest_cron"`  // 5-field cron, empty disables
	NotifyDraft bool   `yaml:"notify_draft"` // post back when a draft is created
}

// DashboardConfig holds the HTTP API settings.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GitHubToken resolves the GitHub token, reading TokenFile when the inline
// token is unset. Returns empty string when neither is configured.
func (c *Config) GitHubToken() (string, error) {
	if c.GitHub.Token != "" {
		return c.GitHub.Token, nil
	}
	if c.GitHub.TokenFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.GitHub.TokenFile)
	if err != nil {
		return "", fmt.Errorf("config: read github token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "ghosthub.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.Database == "" {
			c.Database.Database = "ghosthub"
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
	}
	if c.Model.Provider == "" {
		c.Model.Provider = "ollama"
	}
	if c.Model.Provider == "ollama" && c.Model.BaseURL == "" {
		c.Model.BaseURL = "http://127.0.0.1:11434"
	}
	if c.Model.Model == "" {
		c.Model.Model = "llama3"
	}
	if c.Model.VisionModel == "" {
		c.Model.VisionModel = c.Model.Model
	}
	if c.Monitor.FlushSecs == 0 {
		c.Monitor.FlushSecs = 120
	}
	if c.Monitor.MaxThread == 0 {
		c.Monitor.MaxThread = 50
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	switch c.Model.Provider {
	case "openai", "ollama":
	default:
		errs = append(errs, fmt.Sprintf("model.provider %q is not supported (openai, ollama)", c.Model.Provider))
	}
	if c.Slack.AppToken != "" && c.Slack.BotToken == "" {
		errs = append(errs, "slack.bot_token is required when slack.app_token is set")
	}
	if c.GitHub.Owner != "" && c.GitHub.Repo == "" {
		errs = append(errs, "github.repo is required when github.owner is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
