package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/scanops/snyk-migrate/internal/gitlab"
	"github.com/scanops/snyk-migrate/internal/snyk"
)

// SourceClient is the slice of the tenant listing API the pipeline
// consumes.
type SourceClient interface {
	OrgTargets(ctx context.Context, orgID string) ([]snyk.Target, error)
	TargetProjects(ctx context.Context, orgID, targetID string) ([]snyk.Project, error)
}

// ProjectIDResolver resolves a namespace/project path to the numeric id
// required by the GitLab import format.
type ProjectIDResolver interface {
	ProjectID(ctx context.Context, path string) (int64, error)
}

// Pipeline drives the per-organization target extraction. Execution is
// strictly sequential: one organization, one target, one page at a time.
type Pipeline struct {
	Source SourceClient
	// GitLab is required only when running the gitlab filter.
	GitLab ProjectIDResolver
}

// Stats summarises one run.
type Stats struct {
	Orgs    int // organizations processed
	Targets int // targets listed across all organizations
	Skipped int // targets skipped (filter mismatch, parse or lookup failure)
	Entries int // import entries emitted
}

// Run processes every mapped source organization under the requested
// filter and returns the import entries in traversal order: organizations,
// then targets in listing order, then branches sorted lexicographically.
// Failures below the organization boundary are contained: the organization
// contributes nothing and the run continues.
func (p *Pipeline) Run(ctx context.Context, filter string, mapping map[string]OrgMapping, sourceOrgs []SourceOrg) ([]ImportEntry, Stats, error) {
	if !ValidFilter(filter) {
		return nil, Stats{}, fmt.Errorf("unsupported source filter %q", filter)
	}

	var entries []ImportEntry
	var stats Stats
	for _, org := range sourceOrgs {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		dest, ok := mapping[org.Name]
		if !ok {
			slog.Warn("no destination org mapped, skipping", "org", org.Name)
			continue
		}
		stats.Orgs++

		orgEntries, err := p.processOrg(ctx, filter, org, dest, &stats)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, ctx.Err()
			}
			slog.Error("processing organization failed, continuing with remaining orgs",
				"org", org.Name, "error", err)
			continue
		}
		entries = append(entries, orgEntries...)
	}
	stats.Entries = len(entries)
	return entries, stats, nil
}

func (p *Pipeline) processOrg(ctx context.Context, filter string, org SourceOrg, dest OrgMapping, stats *Stats) ([]ImportEntry, error) {
	slog.Info("processing organization", "org", org.Name, "dest_org", dest.OrgID)

	targets, err := p.Source.OrgTargets(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching targets: %w", err)
	}
	slog.Info("targets found", "org", org.Name, "count", len(targets))

	var entries []ImportEntry
	for _, target := range targets {
		stats.Targets++
		built, skipped := p.processTarget(ctx, filter, org, dest, target)
		if skipped {
			stats.Skipped++
		}
		entries = append(entries, built...)
	}
	return entries, nil
}

// processTarget runs one target through the filter, addressing resolution
// and branch resolution, returning its import entries. skipped is true
// when the target was rejected or could not be addressed.
func (p *Pipeline) processTarget(ctx context.Context, filter string, org SourceOrg, dest OrgMapping, target snyk.Target) (entries []ImportEntry, skipped bool) {
	displayName := target.Attributes.DisplayName
	sourceType := InferSourceType(target)

	if !MatchesFilter(filter, sourceType, dest.Integrations) {
		slog.Debug("target does not match filter, skipping",
			"target", displayName, "source", sourceType, "filter", filter)
		return nil, true
	}

	family, integrationID := SelectIntegration(dest.Integrations, filter)
	if integrationID == "" {
		slog.Warn("no supported integration on destination org, skipping target",
			"org", org.Name, "target", displayName,
			"available", credentialNames(dest.Integrations))
		return nil, true
	}
	slog.Info("processing target",
		"target", displayName, "source", sourceType, "integration", integrationID)

	var addressing *ImportTarget
	switch family {
	case FamilyGitHub:
		addressing = GitHubTarget(displayName)

	case FamilyGitLab:
		if p.GitLab == nil {
			slog.Warn("GitLab resolver not configured, skipping target", "target", displayName)
			return nil, true
		}
		namespace, name, err := gitlab.SplitProjectPath(displayName)
		if err != nil {
			slog.Warn("cannot parse project path, skipping target",
				"target", displayName, "error", err)
			return nil, true
		}
		id, err := p.GitLab.ProjectID(ctx, namespace+"/"+name)
		if err != nil {
			slog.Warn("cannot resolve project id, skipping target",
				"target", displayName, "error", err)
			return nil, true
		}
		addressing = GitLabTarget(id)
	}

	projects, err := p.Source.TargetProjects(ctx, org.ID, target.ID)
	if err != nil {
		slog.Warn("cannot fetch projects for target, continuing without branches",
			"target", target.ID, "error", err)
		projects = nil
	} else {
		slog.Debug("analysing projects for target", "target", displayName, "count", len(projects))
	}

	branches := ResolveBranches(projects)
	if branches.Empty() {
		entry := p.emit(dest.OrgID, integrationID, family, addressing, "", displayName)
		slog.Info("added target", "target", displayName, "branch", "none")
		return []ImportEntry{entry}, false
	}

	if branches.Multi() {
		slog.Info("multiple branches detected, creating one entry per branch",
			"target", displayName, "branches", branches.Branches, "primary", branches.Primary)
	}
	for _, branch := range branches.Branches {
		entry := p.emit(dest.OrgID, integrationID, family, addressing, branch, displayName)
		slog.Info("added target",
			"target", displayName, "branch", branch,
			"primary", branches.Multi() && branch == branches.Primary)
		entries = append(entries, entry)
	}
	return entries, false
}

func (p *Pipeline) emit(orgID, integrationID string, family Family, addressing *ImportTarget, branch, displayName string) ImportEntry {
	entry, ok := NewEntry(orgID, integrationID, family, addressing, branch)
	if !ok {
		slog.Warn("entry missing required addressing fields, import may reject it",
			"target", displayName, "family", string(family))
	}
	return entry
}

func credentialNames(integrations map[string]string) []string {
	names := make([]string, 0, len(integrations))
	for name := range integrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
