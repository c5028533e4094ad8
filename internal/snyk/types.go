package snyk

// Org is one organization record from the tenant listing API.
type Org struct {
	ID         string        `json:"id"`
	Attributes OrgAttributes `json:"attributes"`
}

// OrgAttributes carries the org fields this tool reads.
type OrgAttributes struct {
	Name string `json:"name"`
}

// Target is a version-controlled repository tracked by the source tenant.
type Target struct {
	ID            string               `json:"id"`
	Attributes    TargetAttributes     `json:"attributes"`
	Relationships *TargetRelationships `json:"relationships,omitempty"`
}

// TargetAttributes carries the target fields this tool reads. DisplayName
// is the human path (owner/repo for GitHub, namespace/project for GitLab).
type TargetAttributes struct {
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

// TargetRelationships holds the optional embedded integration metadata.
type TargetRelationships struct {
	Integration IntegrationRelationship `json:"integration"`
}

// IntegrationRelationship wraps the integration relationship envelope.
type IntegrationRelationship struct {
	Data IntegrationData `json:"data"`
}

// IntegrationData wraps the integration attributes.
type IntegrationData struct {
	Attributes IntegrationAttributes `json:"attributes"`
}

// IntegrationAttributes names the integration variant the target was
// imported through, when the API exposes it.
type IntegrationAttributes struct {
	IntegrationType string `json:"integration_type"`
}

// IntegrationType returns the explicit integration variant recorded on the
// target, or "" when the relationship is absent.
func (t Target) IntegrationType() string {
	if t.Relationships == nil {
		return ""
	}
	return t.Relationships.Integration.Data.Attributes.IntegrationType
}

// Project is one scan configuration of a Target, optionally bound to a
// specific branch.
type Project struct {
	ID         string            `json:"id"`
	Attributes ProjectAttributes `json:"attributes"`
}

// ProjectAttributes carries the project fields used for branch resolution.
type ProjectAttributes struct {
	Name            string `json:"name"`
	TargetReference string `json:"target_reference"`
	Branch          string `json:"branch"`
}
