package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ConfigurationError lists required settings that are missing. It is
// reported once at startup, before any processing.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + strings.Join(e.Missing, ", ")
}

// envBindings maps config keys to the environment variable names kept from
// the original tooling.
var envBindings = map[string]string{
	"snyk.token":             "SNYK_TOKEN",
	"snyk.api_url":           "SNYK_API_URL",
	"gitlab.token":           "GITLAB_API_TOKEN",
	"gitlab.base_url":        "GITLAB_BASE_URL",
	"groups.source_group_id": "SOURCE_GROUP_ID",
	"groups.target_group_id": "TARGET_GROUP_ID",
	"groups.template_org_id": "TEMPLATE_ORG_ID",
	"log_path":               "SNYK_LOG_PATH",
}

// Load reads configuration from the environment and, when configPath is
// set, a JSON config file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	for key, env := range envBindings {
		// Defaults make the bound keys visible to Unmarshal even when
		// only the environment supplies them.
		v.SetDefault(key, "")
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// ValidateTargets checks everything the targets extraction needs. The
// GitLab token is only required when extracting gitlab targets.
func (c *Config) ValidateTargets(needGitLab bool) error {
	var missing []string
	if c.Snyk.Token == "" {
		missing = append(missing, "SNYK_TOKEN")
	}
	if c.LogPath == "" {
		missing = append(missing, "SNYK_LOG_PATH")
	}
	if needGitLab && c.GitLab.Token == "" {
		missing = append(missing, "GITLAB_API_TOKEN")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// ValidateOrgs checks everything the org extraction needs.
func (c *Config) ValidateOrgs() error {
	var missing []string
	if c.Snyk.Token == "" {
		missing = append(missing, "SNYK_TOKEN")
	}
	if c.Groups.SourceGroupID == "" {
		missing = append(missing, "SOURCE_GROUP_ID")
	}
	if c.Groups.TargetGroupID == "" {
		missing = append(missing, "TARGET_GROUP_ID")
	}
	if c.Groups.TemplateOrgID == "" {
		missing = append(missing, "TEMPLATE_ORG_ID")
	}
	if c.LogPath == "" {
		missing = append(missing, "SNYK_LOG_PATH")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}
