package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_REPO", "")
	t.Setenv("GHE_BASE_URL", "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Settings.AutoClose)
	assert.False(t, cfg.Settings.DryRun)
	assert.Equal(t, "text", cfg.Settings.Output)
	assert.Equal(t, "tfsec-security", cfg.Labels.Base)
	assert.Equal(t, "severity-", cfg.Labels.SeverityPrefix)
	assert.Equal(t, "aws-", cfg.Labels.ServicePrefix)
	assert.Equal(t, "provider-", cfg.Labels.ProviderPrefix)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.False(t, cfg.Email.Enabled)
	assert.False(t, cfg.Advisor.Enabled)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
github:
  token: file-token
  repo: acme/infra
settings:
  auto_close: false
labels:
  base: custom-label
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.GitHub.Token)
	assert.Equal(t, "acme/infra", cfg.GitHub.Repo)
	assert.False(t, cfg.Settings.AutoClose)
	assert.Equal(t, "custom-label", cfg.Labels.Base)
	// Untouched sections keep their defaults
	assert.Equal(t, "severity-", cfg.Labels.SeverityPrefix)
	assert.Equal(t, "text", cfg.Settings.Output)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("GITHUB_REPO", "env-org/env-repo")
	t.Setenv("GHE_BASE_URL", "https://github.example.com")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
github:
  token: file-token
  repo: acme/infra
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, "env-org/env-repo", cfg.GitHub.Repo)
	assert.Equal(t, "https://github.example.com", cfg.GitHub.BaseURL)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("github: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.GitHub.Token = "" },
			wantErr: "token",
		},
		{
			name:    "missing repo",
			mutate:  func(c *Config) { c.GitHub.Repo = "" },
			wantErr: "repository",
		},
		{
			name:    "repo without slash",
			mutate:  func(c *Config) { c.GitHub.Repo = "infra" },
			wantErr: "owner/repo",
		},
		{
			name:    "bad output",
			mutate:  func(c *Config) { c.Settings.Output = "xml" },
			wantErr: "output",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.GitHub.Token = "t"
			cfg.GitHub.Repo = "acme/infra"
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestBaseURLs(t *testing.T) {
	g := GitHubConfig{}
	assert.Equal(t, "https://api.github.com", g.APIBaseURL())
	assert.Equal(t, "https://github.com", g.WebBaseURL())

	g.BaseURL = "https://github.example.com/"
	assert.Equal(t, "https://github.example.com/api/v3", g.APIBaseURL())
	assert.Equal(t, "https://github.example.com", g.WebBaseURL())
}
