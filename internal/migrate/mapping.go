package migrate

import (
	"encoding/json"
	"fmt"
	"os"
)

// Hand-off file names, fixed by the surrounding migration tooling.
const (
	// CreatedOrgsFile maps source org names to destination org ids and
	// integration credentials (written by the org creation step).
	CreatedOrgsFile = "snyk-created-orgs.json"
	// SourceOrgsFile lists source org references (written by `orgs`).
	SourceOrgsFile = "snyk-source-orgs.json"
	// OrgsToCreateFile lists organizations to create in the destination
	// group (written by `orgs`).
	OrgsToCreateFile = "snyk-orgs-to-create.json"
	// ImportTargetsFile is the final import document (written by `targets`).
	ImportTargetsFile = "snyk-import-targets.json"
)

// OrgMapping addresses one destination organization: its id and the
// integration credentials registered on it, keyed by variant name.
type OrgMapping struct {
	OrgID        string
	Integrations map[string]string
}

// SourceOrg is one source organization reference.
type SourceOrg struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LoadOrgMapping reads the created-orgs hand-off file and indexes it by
// original (source) organization name. Records missing a name or id are
// dropped.
func LoadOrgMapping(path string) (map[string]OrgMapping, error) {
	var doc struct {
		OrgData []struct {
			OrigName     string            `json:"origName"`
			ID           string            `json:"id"`
			Integrations map[string]string `json:"integrations"`
		} `json:"orgData"`
	}
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}

	mapping := make(map[string]OrgMapping, len(doc.OrgData))
	for _, org := range doc.OrgData {
		if org.OrigName == "" || org.ID == "" {
			continue
		}
		mapping[org.OrigName] = OrgMapping{
			OrgID:        org.ID,
			Integrations: org.Integrations,
		}
	}
	return mapping, nil
}

// LoadSourceOrgs reads the source organization reference list.
func LoadSourceOrgs(path string) ([]SourceOrg, error) {
	var doc struct {
		SourceOrgs []SourceOrg `json:"sourceOrgs"`
	}
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}
	return doc.SourceOrgs, nil
}

// WriteImportTargets writes the final import document.
func WriteImportTargets(path string, entries []ImportEntry) error {
	if entries == nil {
		entries = []ImportEntry{}
	}
	return writeJSON(path, struct {
		Targets []ImportEntry `json:"targets"`
	}{Targets: entries})
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serialising %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}
