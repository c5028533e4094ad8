package migrate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/scanops/snyk-migrate/internal/snyk"
)

type fakeSource struct {
	targets     map[string][]snyk.Target
	projects    map[string][]snyk.Project
	targetsErr  map[string]error
	projectsErr map[string]error
}

func (f *fakeSource) OrgTargets(_ context.Context, orgID string) ([]snyk.Target, error) {
	if err := f.targetsErr[orgID]; err != nil {
		return nil, err
	}
	return f.targets[orgID], nil
}

func (f *fakeSource) TargetProjects(_ context.Context, _, targetID string) ([]snyk.Project, error) {
	if err := f.projectsErr[targetID]; err != nil {
		return nil, err
	}
	return f.projects[targetID], nil
}

type fakeResolver struct {
	ids   map[string]int64
	err   error
	calls int
}

func (f *fakeResolver) ProjectID(_ context.Context, path string) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	id, ok := f.ids[path]
	if !ok {
		return 0, fmt.Errorf("unexpected lookup for %q", path)
	}
	return id, nil
}

func acmeFixture() (*fakeSource, map[string]OrgMapping, []SourceOrg) {
	source := &fakeSource{
		targets: map[string][]snyk.Target{
			"src-1": {{
				ID: "t1",
				Attributes: snyk.TargetAttributes{
					DisplayName: "acme/widgets",
					URL:         "https://github.com/acme/widgets",
				},
			}},
		},
		projects: map[string][]snyk.Project{
			"t1": {
				proj("widgets:main", "", ""),
				proj("widgets:develop", "", ""),
			},
		},
	}
	mapping := map[string]OrgMapping{
		"Acme": {OrgID: "org-123", Integrations: map[string]string{"github": "int-1"}},
	}
	sourceOrgs := []SourceOrg{{ID: "src-1", Name: "Acme"}}
	return source, mapping, sourceOrgs
}

func TestRunGitHubMultiBranch(t *testing.T) {
	source, mapping, sourceOrgs := acmeFixture()
	p := &Pipeline{Source: source}

	entries, stats, err := p.Run(context.Background(), "github", mapping, sourceOrgs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (one per branch), got %d", len(entries))
	}

	// Branches are emitted in lexicographic order.
	wantBranches := []string{"develop", "main"}
	for i, entry := range entries {
		if entry.OrgID != "org-123" || entry.IntegrationID != "int-1" {
			t.Errorf("entries[%d] destination = %s/%s, want org-123/int-1",
				i, entry.OrgID, entry.IntegrationID)
		}
		if entry.Target == nil {
			t.Fatalf("entries[%d] has no addressing", i)
		}
		if entry.Target.Owner != "acme" || entry.Target.Name != "widgets" {
			t.Errorf("entries[%d] addressing = %+v", i, entry.Target)
		}
		if entry.Target.Branch != wantBranches[i] {
			t.Errorf("entries[%d].Branch = %q, want %q", i, entry.Target.Branch, wantBranches[i])
		}
	}

	if stats.Orgs != 1 || stats.Targets != 1 || stats.Skipped != 0 || stats.Entries != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestRunFamilyMismatchYieldsNothing(t *testing.T) {
	source, mapping, sourceOrgs := acmeFixture()
	p := &Pipeline{Source: source}

	entries, stats, err := p.Run(context.Background(), "gitlab", mapping, sourceOrgs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries under gitlab filter, got %d", len(entries))
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
}

func TestRunSingleBranch(t *testing.T) {
	source, mapping, sourceOrgs := acmeFixture()
	source.projects["t1"] = []snyk.Project{proj("widgets:main", "", "")}
	p := &Pipeline{Source: source}

	entries, _, err := p.Run(context.Background(), "github", mapping, sourceOrgs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries) != 1 || entries[0].Target.Branch != "main" {
		t.Fatalf("expected one entry on main, got %+v", entries)
	}
}

func TestRunNoBranchesEmitsBranchlessEntry(t *testing.T) {
	source, mapping, sourceOrgs := acmeFixture()
	source.projects["t1"] = nil
	p := &Pipeline{Source: source}

	entries, _, err := p.Run(context.Background(), "github", mapping, sourceOrgs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one branchless entry, got %d", len(entries))
	}
	if entries[0].Target == nil || entries[0].Target.Branch != "" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

func TestRunProjectFetchFailureDegradesToBranchless(t *testing.T) {
	source, mapping, sourceOrgs := acmeFixture()
	source.projectsErr = map[string]error{"t1": errors.New("boom")}
	p := &Pipeline{Source: source}

	entries, _, err := p.Run(context.Background(), "github", mapping, sourceOrgs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries) != 1 || entries[0].Target.Branch != "" {
		t.Fatalf("expected one branchless entry, got %+v", entries)
	}
}

func TestRunGitLabResolvesProjectID(t *testing.T) {
	source := &fakeSource{
		targets: map[string][]snyk.Target{
			"src-1": {{
				ID: "t1",
				Attributes: snyk.TargetAttributes{
					DisplayName: "group/sub/widgets",
					URL:         "https://gitlab.com/group/sub/widgets",
				},
			}},
		},
		projects: map[string][]snyk.Project{
			"t1": {proj("widgets:main", "", "")},
		},
	}
	mapping := map[string]OrgMapping{
		"Acme": {OrgID: "org-123", Integrations: map[string]string{"gitlab": "int-9"}},
	}
	resolver := &fakeResolver{ids: map[string]int64{"group/sub/widgets": 777}}
	p := &Pipeline{Source: source, GitLab: resolver}

	entries, _, err := p.Run(context.Background(), "gitlab", mapping, []SourceOrg{{ID: "src-1", Name: "Acme"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.IntegrationID != "int-9" || got.Target == nil || got.Target.ID != 777 || got.Target.Branch != "main" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if got.Target.Owner != "" || got.Target.Name != "" {
		t.Errorf("gitlab addressing must not carry owner/name: %+v", got.Target)
	}
	if resolver.calls != 1 {
		t.Errorf("resolver calls = %d, want 1", resolver.calls)
	}
}

func TestRunGitLabUnparseablePathSkips(t *testing.T) {
	source := &fakeSource{
		targets: map[string][]snyk.Target{
			"src-1": {{
				ID: "t1",
				Attributes: snyk.TargetAttributes{
					DisplayName: "widgetsonly",
					URL:         "https://gitlab.com/widgetsonly",
				},
			}},
		},
	}
	mapping := map[string]OrgMapping{
		"Acme": {OrgID: "org-123", Integrations: map[string]string{"gitlab": "int-9"}},
	}
	resolver := &fakeResolver{}
	p := &Pipeline{Source: source, GitLab: resolver}

	entries, stats, err := p.Run(context.Background(), "gitlab", mapping, []SourceOrg{{ID: "src-1", Name: "Acme"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %+v", entries)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver must not be called for unparseable paths, got %d calls", resolver.calls)
	}
}

func TestRunGitLabLookupFailureSkips(t *testing.T) {
	source := &fakeSource{
		targets: map[string][]snyk.Target{
			"src-1": {{
				ID: "t1",
				Attributes: snyk.TargetAttributes{
					DisplayName: "group/widgets",
					URL:         "https://gitlab.com/group/widgets",
				},
			}},
		},
	}
	mapping := map[string]OrgMapping{
		"Acme": {OrgID: "org-123", Integrations: map[string]string{"gitlab": "int-9"}},
	}
	p := &Pipeline{
		Source: source,
		GitLab: &fakeResolver{err: errors.New("rate limit exhausted")},
	}

	entries, stats, err := p.Run(context.Background(), "gitlab", mapping, []SourceOrg{{ID: "src-1", Name: "Acme"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries) != 0 || stats.Skipped != 1 {
		t.Fatalf("expected skip, got entries=%d stats=%+v", len(entries), stats)
	}
}

func TestRunOrgFailureIsContained(t *testing.T) {
	source, mapping, sourceOrgs := acmeFixture()
	source.targets["src-2"] = []snyk.Target{{
		ID: "t2",
		Attributes: snyk.TargetAttributes{
			DisplayName: "beta/api",
			URL:         "https://github.com/beta/api",
		},
	}}
	source.projects["t2"] = []snyk.Project{proj("api:main", "", "")}
	source.targetsErr = map[string]error{"src-1": errors.New("listing failed")}

	mapping["Beta"] = OrgMapping{OrgID: "org-456", Integrations: map[string]string{"github": "int-2"}}
	sourceOrgs = append(sourceOrgs, SourceOrg{ID: "src-2", Name: "Beta"})

	p := &Pipeline{Source: source}
	entries, stats, err := p.Run(context.Background(), "github", mapping, sourceOrgs)
	if err != nil {
		t.Fatalf("a single org failure must not abort the run: %v", err)
	}
	if len(entries) != 1 || entries[0].OrgID != "org-456" {
		t.Fatalf("expected the surviving org's entry only, got %+v", entries)
	}
	if stats.Orgs != 2 {
		t.Errorf("Orgs = %d, want 2", stats.Orgs)
	}
}

func TestRunUnmappedOrgIsSkipped(t *testing.T) {
	source, mapping, _ := acmeFixture()
	p := &Pipeline{Source: source}

	entries, stats, err := p.Run(context.Background(), "github", mapping,
		[]SourceOrg{{ID: "src-9", Name: "Orphan"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries) != 0 || stats.Orgs != 0 {
		t.Fatalf("expected nothing processed, got entries=%d stats=%+v", len(entries), stats)
	}
}

func TestRunRejectsUnknownFilter(t *testing.T) {
	p := &Pipeline{Source: &fakeSource{}}
	if _, _, err := p.Run(context.Background(), "bitbucket", nil, nil); err == nil {
		t.Fatal("expected error for unsupported filter")
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	source, mapping, sourceOrgs := acmeFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Pipeline{Source: source}
	_, _, err := p.Run(ctx, "github", mapping, sourceOrgs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
