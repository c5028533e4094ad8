package config

// Config is the root configuration for snyk-migrate. Values come from the
// environment (the operative variables noted below) or an optional JSON
// config file; environment values win.
type Config struct {
	Snyk   SnykConfig   `mapstructure:"snyk"   json:"snyk"`
	GitLab GitLabConfig `mapstructure:"gitlab" json:"gitlab"`
	Groups GroupsConfig `mapstructure:"groups" json:"groups"`
	// LogPath is the directory holding the hand-off files (SNYK_LOG_PATH).
	LogPath string `mapstructure:"log_path" json:"log_path"`
}

// SnykConfig holds credentials for the source tenant.
type SnykConfig struct {
	// Token authenticates against the source tenant (SNYK_TOKEN).
	Token string `mapstructure:"token" json:"token"`
	// APIURL overrides the REST API base URL (SNYK_API_URL).
	APIURL string `mapstructure:"api_url" json:"api_url"`
}

// GitLabConfig holds credentials for project-id lookups. Only needed when
// extracting gitlab targets.
type GitLabConfig struct {
	// Token authenticates the lookup API (GITLAB_API_TOKEN).
	Token string `mapstructure:"token" json:"token"`
	// BaseURL overrides the API endpoint for self-hosted instances
	// (GITLAB_BASE_URL).
	BaseURL string `mapstructure:"base_url" json:"base_url"`
}

// GroupsConfig identifies the groups involved in the migration. Only the
// org extraction step needs these.
type GroupsConfig struct {
	// SourceGroupID is the group to extract organizations from
	// (SOURCE_GROUP_ID).
	SourceGroupID string `mapstructure:"source_group_id" json:"source_group_id"`
	// TargetGroupID is the group organizations will be created in
	// (TARGET_GROUP_ID).
	TargetGroupID string `mapstructure:"target_group_id" json:"target_group_id"`
	// TemplateOrgID is the destination-group org whose settings new
	// organizations copy (TEMPLATE_ORG_ID).
	TemplateOrgID string `mapstructure:"template_org_id" json:"template_org_id"`
}
