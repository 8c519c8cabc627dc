package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	GitHub   GitHubConfig   `yaml:"github"`
	Settings SettingsConfig `yaml:"settings"`
	Labels   LabelConfig    `yaml:"labels"`
	Email    EmailConfig    `yaml:"email"`
	Advisor  AdvisorConfig  `yaml:"advisor"`
	Verbose  bool           `yaml:"-"` // Set via CLI only
}

// GitHubConfig holds GitHub connection settings
type GitHubConfig struct {
	Token   string `yaml:"token"`
	Repo    string `yaml:"repo"`     // owner/repo
	BaseURL string `yaml:"base_url"` // GitHub Enterprise root, empty for github.com
}

// SettingsConfig holds reconciliation behavior settings
type SettingsConfig struct {
	AutoClose bool   `yaml:"auto_close"`
	DryRun    bool   `yaml:"dry_run"`
	Output    string `yaml:"output"` // text or json
}

// LabelConfig holds the label scheme applied to managed issues.
// The base label is the sole marker used to recognize our issues.
type LabelConfig struct {
	Base           string `yaml:"base"`
	SeverityPrefix string `yaml:"severity_prefix"`
	ServicePrefix  string `yaml:"service_prefix"`
	ProviderPrefix string `yaml:"provider_prefix"`
}

// EmailConfig holds summary email delivery settings
type EmailConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromAddress  string `yaml:"from_address"`
	FromName     string `yaml:"from_name"`
	ToAddress    string `yaml:"to_address"`
}

// AdvisorConfig holds LLM remediation advisor settings
type AdvisorConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // openai, googleai
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // Custom API endpoint for OpenAI-compatible services
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			AutoClose: true,
			Output:    "text",
		},
		Labels: LabelConfig{
			Base:           "tfsec-security",
			SeverityPrefix: "severity-",
			ServicePrefix:  "aws-",
			ProviderPrefix: "provider-",
		},
		Email: EmailConfig{
			SMTPPort: 587,
			FromName: "tfgitsec",
		},
		Advisor: AdvisorConfig{
			Provider: "openai",
		},
	}
}

// Load reads configuration from file, merges with defaults, and applies
// environment variable overrides for the GitHub settings
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Determine config file path
	explicit := path != ""
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, ".config", "tfgitsec", "config.yaml")
		}
	}

	if path != "" {
		data, err := os.ReadFile(expandPath(path))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		case os.IsNotExist(err) && !explicit:
			// No config file is fine, defaults apply
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets environment variables override file values
func (c *Config) applyEnv() {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_REPO"); v != "" {
		c.GitHub.Repo = v
	}
	if v := os.Getenv("GHE_BASE_URL"); v != "" {
		c.GitHub.BaseURL = v
	}
}

// Validate checks that the configuration is usable for GitHub access
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("github token is required (set GITHUB_TOKEN or github.token)")
	}
	if c.GitHub.Repo == "" {
		return fmt.Errorf("github repository is required (set GITHUB_REPO or github.repo, owner/repo format)")
	}
	if !strings.Contains(c.GitHub.Repo, "/") {
		return fmt.Errorf("github repository must be in owner/repo format, got %q", c.GitHub.Repo)
	}
	switch c.Settings.Output {
	case "text", "json":
	default:
		return fmt.Errorf("output must be text or json, got %q", c.Settings.Output)
	}
	return nil
}

// APIBaseURL returns the REST API root: api.github.com, or <ghe>/api/v3
// when a GitHub Enterprise base URL is configured
func (g GitHubConfig) APIBaseURL() string {
	if g.BaseURL != "" {
		return strings.TrimSuffix(g.BaseURL, "/") + "/api/v3"
	}
	return "https://api.github.com"
}

// WebBaseURL returns the web root used to build issue URLs
func (g GitHubConfig) WebBaseURL() string {
	if g.BaseURL != "" {
		return strings.TrimSuffix(g.BaseURL, "/")
	}
	return "https://github.com"
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
