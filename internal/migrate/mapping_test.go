package migrate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadOrgMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), CreatedOrgsFile)
	doc := `{
		"orgData": [
			{"origName":"Acme","id":"org-123","integrations":{"github":"int-1","gitlab":"int-9"}},
			{"origName":"","id":"org-999"},
			{"origName":"NoID","id":""}
		]
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	mapping, err := LoadOrgMapping(path)
	if err != nil {
		t.Fatalf("LoadOrgMapping: %v", err)
	}
	if len(mapping) != 1 {
		t.Fatalf("expected records missing name or id to be dropped, got %d entries", len(mapping))
	}
	acme, ok := mapping["Acme"]
	if !ok {
		t.Fatal("Acme missing from mapping")
	}
	if acme.OrgID != "org-123" || acme.Integrations["github"] != "int-1" {
		t.Fatalf("unexpected mapping %+v", acme)
	}
}

func TestLoadOrgMappingMissingFile(t *testing.T) {
	_, err := LoadOrgMapping(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadSourceOrgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), SourceOrgsFile)
	doc := `{"sourceOrgs":[{"id":"src-1","name":"Acme"},{"id":"src-2","name":"Beta"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	orgs, err := LoadSourceOrgs(path)
	if err != nil {
		t.Fatalf("LoadSourceOrgs: %v", err)
	}
	if len(orgs) != 2 || orgs[0].Name != "Acme" || orgs[1].ID != "src-2" {
		t.Fatalf("unexpected orgs %+v", orgs)
	}
}

func TestWriteImportTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), ImportTargetsFile)
	entry, _ := NewEntry("org-123", "int-1", FamilyGitHub, GitHubTarget("acme/widgets"), "main")
	if err := WriteImportTargets(path, []ImportEntry{entry}); err != nil {
		t.Fatalf("WriteImportTargets: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Targets []ImportEntry `json:"targets"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Targets) != 1 || doc.Targets[0].Target.Owner != "acme" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestWriteImportTargetsEmptyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), ImportTargetsFile)
	if err := WriteImportTargets(path, nil); err != nil {
		t.Fatalf("WriteImportTargets: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"targets": []`) {
		t.Fatalf("empty run must still write an empty array, got %s", data)
	}
}
