package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scanops/snyk-migrate/internal/snyk"
)

// OrgPlan is one organization to create in the destination group, copying
// settings from the template org.
type OrgPlan struct {
	Name        string `json:"name"`
	GroupID     string `json:"groupId"`
	SourceOrgID string `json:"sourceOrgId"`
}

// OrgLister is the slice of the tenant listing API the org extraction
// consumes.
type OrgLister interface {
	GroupOrgs(ctx context.Context, groupID string) ([]snyk.Org, error)
}

// ExtractOrgs lists the source group's organizations and prepares both the
// creation plan for the destination group and the source references
// consumed by the target extraction step. Orgs missing a name or id are
// skipped with a warning.
func ExtractOrgs(ctx context.Context, client OrgLister, sourceGroupID, targetGroupID, templateOrgID string) ([]OrgPlan, []SourceOrg, error) {
	orgs, err := client.GroupOrgs(ctx, sourceGroupID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching organizations for group %s: %w", sourceGroupID, err)
	}
	slog.Info("organizations found in source group", "group", sourceGroupID, "count", len(orgs))

	plans := make([]OrgPlan, 0, len(orgs))
	refs := make([]SourceOrg, 0, len(orgs))
	for _, org := range orgs {
		if org.ID == "" || org.Attributes.Name == "" {
			slog.Warn("skipping organization with missing name or id",
				"id", org.ID, "name", org.Attributes.Name)
			continue
		}
		plans = append(plans, OrgPlan{
			Name:        org.Attributes.Name,
			GroupID:     targetGroupID,
			SourceOrgID: templateOrgID,
		})
		refs = append(refs, SourceOrg{ID: org.ID, Name: org.Attributes.Name})
	}
	return plans, refs, nil
}

// WriteOrgPlan writes the org creation document.
func WriteOrgPlan(path string, plans []OrgPlan) error {
	if plans == nil {
		plans = []OrgPlan{}
	}
	return writeJSON(path, struct {
		Orgs []OrgPlan `json:"orgs"`
	}{Orgs: plans})
}

// WriteSourceOrgs writes the source organization reference document.
func WriteSourceOrgs(path string, orgs []SourceOrg) error {
	if orgs == nil {
		orgs = []SourceOrg{}
	}
	return writeJSON(path, struct {
		SourceOrgs []SourceOrg `json:"sourceOrgs"`
	}{SourceOrgs: orgs})
}
