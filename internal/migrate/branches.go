package migrate

import (
	"sort"
	"strings"

	"github.com/scanops/snyk-migrate/internal/snyk"
)

// BranchSet holds the distinct branches inferred for one target from its
// projects, sorted lexicographically. Primary is set only when more than
// one branch was found.
type BranchSet struct {
	Branches []string
	Primary  string
}

// Empty reports whether no branch could be inferred.
func (b BranchSet) Empty() bool { return len(b.Branches) == 0 }

// Multi reports whether the target is scanned under several branches.
func (b BranchSet) Multi() bool { return len(b.Branches) > 1 }

// ResolveBranches derives the branch set for a target from its projects.
// Projects contributing no branch are ignored; they neither create nor
// block output.
func ResolveBranches(projects []snyk.Project) BranchSet {
	seen := make(map[string]bool)
	for _, p := range projects {
		if branch := branchOf(p); branch != "" {
			seen[branch] = true
		}
	}
	if len(seen) == 0 {
		return BranchSet{}
	}

	branches := make([]string, 0, len(seen))
	for branch := range seen {
		branches = append(branches, branch)
	}
	sort.Strings(branches)

	set := BranchSet{Branches: branches}
	if len(branches) > 1 {
		set.Primary = primaryBranch(branches, seen)
	}
	return set
}

// branchOf extracts a branch name from one project, trying each source in
// order: the explicit target_reference, the explicit branch field, a
// "name:branch" project name (rejected when the tail contains a path
// separator and is probably a URL fragment), and a "name (branch)" project
// name. The first applicable rule wins; an applicable rule that yields
// nothing does not fall through to the next.
func branchOf(p snyk.Project) string {
	attrs := p.Attributes
	switch {
	case attrs.TargetReference != "":
		return attrs.TargetReference

	case attrs.Branch != "":
		return attrs.Branch

	case strings.Contains(attrs.Name, ":"):
		tail := strings.TrimSpace(attrs.Name[strings.LastIndex(attrs.Name, ":")+1:])
		if tail != "" && !strings.Contains(tail, "/") {
			return tail
		}

	case strings.Contains(attrs.Name, " (") && strings.Contains(attrs.Name, ")"):
		inner := attrs.Name[strings.Index(attrs.Name, " (")+2:]
		inner, _, _ = strings.Cut(inner, ")")
		return strings.TrimSpace(inner)
	}
	return ""
}

// primaryBranch applies the main > master > lexicographically-smallest
// preference. sorted must be non-empty and sorted ascending.
func primaryBranch(sorted []string, seen map[string]bool) string {
	if seen["main"] {
		return "main"
	}
	if seen["master"] {
		return "master"
	}
	return sorted[0]
}
