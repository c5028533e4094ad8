package migrate

import (
	"log/slog"
	"strings"

	"github.com/scanops/snyk-migrate/internal/snyk"
)

// Family groups integration variants by version-control provider.
type Family string

const (
	FamilyGitHub  Family = "github"
	FamilyGitLab  Family = "gitlab"
	FamilyUnknown Family = ""
)

// githubVariants is the credential preference order for the GitHub family.
var githubVariants = []string{"github-cloud-app", "github-enterprise", "github"}

// gitlabVariants is the credential preference order for the GitLab family.
var gitlabVariants = []string{"gitlab"}

// SourceFilters lists the accepted --source values, one per supported
// integration variant.
var SourceFilters = []string{"github", "github-enterprise", "github-cloud-app", "gitlab"}

// ValidFilter reports whether filter is a supported --source value.
func ValidFilter(filter string) bool {
	for _, f := range SourceFilters {
		if f == filter {
			return true
		}
	}
	return false
}

// FamilyOf returns the family an integration variant belongs to, or
// FamilyUnknown for anything unrecognised.
func FamilyOf(variant string) Family {
	switch variant {
	case "github", "github-enterprise", "github-cloud-app":
		return FamilyGitHub
	case "gitlab":
		return FamilyGitLab
	}
	return FamilyUnknown
}

// InferSourceType determines the source integration variant of a target.
// Rules are tried in order: GitLab URL substring, GitHub URL substring,
// the explicit integration_type attribute (restricted to known variants),
// then a last-resort guess from the display name shape. No signal yields
// "", which never matches any filter.
func InferSourceType(t snyk.Target) string {
	url := t.Attributes.URL
	if strings.Contains(url, "gitlab") {
		return "gitlab"
	}
	if strings.Contains(url, "github.com") {
		// The URL alone cannot distinguish GitHub variants; credential
		// matching against the destination org narrows it down later.
		return "github"
	}

	if explicit := t.IntegrationType(); FamilyOf(explicit) != FamilyUnknown {
		return explicit
	}

	// Heuristic of last resort: an owner/repo-shaped display name is
	// assumed to be GitHub. Logged as a guess, never upgraded.
	if strings.Contains(t.Attributes.DisplayName, "/") {
		slog.Debug("no integration signal, guessing github from display name shape",
			"display_name", t.Attributes.DisplayName)
		return "github"
	}
	return ""
}

// MatchesFilter reports whether a target whose inferred variant is
// sourceType should be processed under the requested filter: the inferred
// family must match the filter's family, and the destination org must have
// a credential registered under the exact requested variant.
func MatchesFilter(filter, sourceType string, integrations map[string]string) bool {
	family := FamilyOf(filter)
	if family == FamilyUnknown || FamilyOf(sourceType) != family {
		return false
	}
	_, ok := integrations[filter]
	return ok
}

// SelectIntegration picks the destination credential for an accepted
// target: exact match on the requested variant when present, otherwise the
// first available credential in family preference order. Returns
// FamilyUnknown and "" when no supported credential exists at all.
func SelectIntegration(integrations map[string]string, filter string) (Family, string) {
	if id, ok := integrations[filter]; ok {
		if family := FamilyOf(filter); family != FamilyUnknown {
			return family, id
		}
	}
	for _, variant := range githubVariants {
		if id, ok := integrations[variant]; ok {
			return FamilyGitHub, id
		}
	}
	for _, variant := range gitlabVariants {
		if id, ok := integrations[variant]; ok {
			return FamilyGitLab, id
		}
	}
	return FamilyUnknown, ""
}
