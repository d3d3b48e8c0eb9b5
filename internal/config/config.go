// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ticketsmith/ticketsmith/internal/logging"
)

// Defaults for the optional settings.
const (
	DefaultModel       = "claude-sonnet-4-5"
	DefaultMaxTokens   = 1024
	DefaultHTTPTimeout = 60 * time.Second
)

// MissingVarError reports every required environment variable that was
// absent, so one run surfaces the full list.
type MissingVarError struct {
	Vars []string
}

func (e *MissingVarError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Vars, ", "))
}

// Config holds all configuration parameters for the application.
type Config struct {
	Jira        JiraConfig
	AI          AIConfig
	GitHub      GitHubConfig
	HTTPTimeout time.Duration
}

// JiraConfig holds the Jira connection settings. Either PAT (Bearer) or
// Email+APIToken (Basic) must be present; PAT wins when both are set.
type JiraConfig struct {
	BaseURL    string
	Email      string
	APIToken   string
	PAT        string
	ProjectKey string
}

// AIConfig holds the completion-service settings. BaseURL is only needed
// when requests go through a gateway instead of the public API.
type AIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
}

// GitHubConfig holds GitHub specific configuration. The token is only
// required when seeding a ticket from a GitHub issue; Domain selects a
// GitHub Enterprise instance.
type GitHubConfig struct {
	Token  string
	Domain string
}

// LoadConfig reads configuration from the process environment, loading a
// .env file first if one exists. Values already set in the environment are
// never overridden by the file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Debug("loaded settings from .env file")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.BindEnv("jira.base_url", "JIRA_BASE_URL")
	v.BindEnv("jira.email", "JIRA_EMAIL")
	v.BindEnv("jira.api_token", "JIRA_API_TOKEN")
	v.BindEnv("jira.pat", "JIRA_PAT")
	v.BindEnv("jira.project_key", "JIRA_PROJECT_KEY")
	v.BindEnv("ai.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("ai.base_url", "ANTHROPIC_BASE_URL")
	v.BindEnv("ai.model", "TICKETSMITH_MODEL")
	v.BindEnv("ai.max_tokens", "TICKETSMITH_MAX_TOKENS")
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.domain", "GITHUB_DOMAIN")
	v.BindEnv("http.timeout", "TICKETSMITH_HTTP_TIMEOUT")

	v.SetDefault("ai.model", DefaultModel)
	v.SetDefault("ai.max_tokens", DefaultMaxTokens)
	v.SetDefault("http.timeout", DefaultHTTPTimeout.String())

	timeout, err := time.ParseDuration(v.GetString("http.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid TICKETSMITH_HTTP_TIMEOUT: %w", err)
	}

	config := &Config{
		Jira: JiraConfig{
			BaseURL:    strings.TrimRight(v.GetString("jira.base_url"), "/"),
			Email:      v.GetString("jira.email"),
			APIToken:   v.GetString("jira.api_token"),
			PAT:        v.GetString("jira.pat"),
			ProjectKey: v.GetString("jira.project_key"),
		},
		AI: AIConfig{
			APIKey:    v.GetString("ai.api_key"),
			BaseURL:   v.GetString("ai.base_url"),
			Model:     v.GetString("ai.model"),
			MaxTokens: v.GetInt64("ai.max_tokens"),
		},
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			Domain: v.GetString("github.domain"),
		},
		HTTPTimeout: timeout,
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	logging.Debug("configuration loaded",
		"jira_base_url", config.Jira.BaseURL,
		"jira_project_key", config.Jira.ProjectKey,
		"jira_token", logging.MaskSensitive(config.Jira.APIToken),
		"jira_pat", logging.MaskSensitive(config.Jira.PAT),
		"ai_api_key", logging.MaskSensitive(config.AI.APIKey),
		"model", config.AI.Model)

	return config, nil
}

// validateConfig ensures that all required configuration values are provided.
func validateConfig(config *Config) error {
	var missingVars []string

	if config.Jira.BaseURL == "" {
		missingVars = append(missingVars, "JIRA_BASE_URL")
	}
	if config.Jira.ProjectKey == "" {
		missingVars = append(missingVars, "JIRA_PROJECT_KEY")
	}
	if config.Jira.PAT == "" {
		// Without a PAT, basic auth needs both halves.
		if config.Jira.Email == "" {
			missingVars = append(missingVars, "JIRA_EMAIL")
		}
		if config.Jira.APIToken == "" {
			missingVars = append(missingVars, "JIRA_API_TOKEN")
		}
	}
	if config.AI.APIKey == "" {
		missingVars = append(missingVars, "ANTHROPIC_API_KEY")
	}

	if len(missingVars) > 0 {
		return &MissingVarError{Vars: missingVars}
	}

	return nil
}

// ValidateGitHubConfig checks the settings that are only required when the
// free text is seeded from a GitHub issue.
func ValidateGitHubConfig(config *Config) error {
	if config.GitHub.Token == "" {
		return &MissingVarError{Vars: []string{"GITHUB_TOKEN"}}
	}
	return nil
}
