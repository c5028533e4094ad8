package migrate

import "strings"

// ImportTarget is the family-specific addressing payload of an import
// entry: owner+name for GitHub, numeric id for GitLab, never both.
type ImportTarget struct {
	Owner  string `json:"owner,omitempty"`
	Name   string `json:"name,omitempty"`
	ID     int64  `json:"id,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// ImportEntry is one import directive consumed by the downstream
// bulk-import tool.
type ImportEntry struct {
	OrgID         string        `json:"orgId"`
	IntegrationID string        `json:"integrationId"`
	Target        *ImportTarget `json:"target,omitempty"`
	// ExclusionGlobs is required by the import schema and always empty.
	ExclusionGlobs string `json:"exclusionGlobs"`
}

// GitHubTarget builds the owner/name addressing payload from a display
// name, splitting on the first separator. A name without a separator is
// used alone unless it is empty or the "unknown" sentinel, in which case
// there is no usable addressing and nil is returned.
func GitHubTarget(displayName string) *ImportTarget {
	if owner, name, found := strings.Cut(displayName, "/"); found {
		return &ImportTarget{Owner: owner, Name: name}
	}
	if displayName != "" && displayName != "unknown" {
		return &ImportTarget{Name: displayName}
	}
	return nil
}

// GitLabTarget builds the numeric-id addressing payload.
func GitLabTarget(projectID int64) *ImportTarget {
	return &ImportTarget{ID: projectID}
}

// NewEntry assembles one import entry for a (target, branch) pair; branch
// may be empty. The returned bool is false when the entry is missing
// addressing fields its family requires — such entries are still emitted,
// since the import tool rejects them individually rather than failing the
// whole batch, but callers should report them.
func NewEntry(orgID, integrationID string, family Family, addressing *ImportTarget, branch string) (ImportEntry, bool) {
	entry := ImportEntry{
		OrgID:          orgID,
		IntegrationID:  integrationID,
		ExclusionGlobs: "",
	}
	if addressing != nil {
		target := *addressing
		if branch != "" {
			target.Branch = branch
		}
		entry.Target = &target
	}
	return entry, complete(family, entry.Target)
}

// complete reports whether the addressing payload satisfies its family's
// required fields.
func complete(family Family, target *ImportTarget) bool {
	if target == nil {
		return false
	}
	switch family {
	case FamilyGitHub:
		return target.Owner != "" && target.Name != ""
	case FamilyGitLab:
		return target.ID != 0
	}
	return false
}
