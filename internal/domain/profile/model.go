package profile

import "time"

// Role identifies what kind of account a profile belongs to.
type Role string

const (
	RoleAnonymous    Role = "anonymous"
	RoleDeveloper    Role = "developer"
	RoleOrganization Role = "organization"
)

// ParseRole maps a claim or header value to a Role. Unknown values are anonymous.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleDeveloper:
		return RoleDeveloper
	case RoleOrganization:
		return RoleOrganization
	default:
		return RoleAnonymous
	}
}

// Profile is a platform account: a volunteer developer or a nonprofit organization.
type Profile struct {
	ID               string    `json:"id"`
	FullName         string    `json:"full_name"`
	Role             Role      `json:"role"`
	OrganizationName string    `json:"organization_name,omitempty"`
	Skills           []string  `json:"skills,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DisplayName returns the organization name for organizations and the full name otherwise.
func (p Profile) DisplayName() string {
	if p.Role == RoleOrganization && p.OrganizationName != "" {
		return p.OrganizationName
	}
	return p.FullName
}

// Viewer is the caller of a request.
type Viewer struct {
	ID   string `json:"id,omitempty"`
	Role Role   `json:"role"`
}

// Anonymous returns a viewer with no identity.
func Anonymous() Viewer {
	return Viewer{Role: RoleAnonymous}
}

// IsAnonymous reports whether the viewer carries no identity.
func (v Viewer) IsAnonymous() bool {
	return v.ID == "" || v.Role == RoleAnonymous
}
