package application

import (
	"sort"
	"time"
)

// Role is a team member's position on a project.
type Role string

const (
	RoleOwner         Role = "owner"
	RoleStatusManager Role = "status_manager"
	RoleMember        Role = "member"
)

// TeamMember is a read-only view derived from accepted applications. It is never stored.
type TeamMember struct {
	UserID        string    `json:"user_id"`
	Name          string    `json:"name,omitempty"`
	Role          Role      `json:"role"`
	ApplicationID string    `json:"application_id,omitempty"`
	JoinedAt      time.Time `json:"joined_at"`
}

// Members projects accepted applications into developer-side team members,
// ordered by join time. Applications in any other status are ignored. For an
// accepted application updated_at is the acceptance time, since promotion
// does not touch it.
func Members(apps []Application) []TeamMember {
	members := make([]TeamMember, 0, len(apps))
	for _, app := range apps {
		if app.Status != StatusAccepted {
			continue
		}
		role := RoleMember
		if app.StatusManager {
			role = RoleStatusManager
		}
		members = append(members, TeamMember{
			UserID:        app.DeveloperID,
			Name:          app.DeveloperName,
			Role:          role,
			ApplicationID: app.ID,
			JoinedAt:      app.UpdatedAt,
		})
	}
	sort.SliceStable(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].UserID < members[j].UserID
	})
	return members
}

// BuildTeam returns the owning organization followed by the accepted developers.
func BuildTeam(organizationID, organizationName string, createdAt time.Time, apps []Application) []TeamMember {
	team := []TeamMember{{
		UserID:   organizationID,
		Name:     organizationName,
		Role:     RoleOwner,
		JoinedAt: createdAt,
	}}
	return append(team, Members(apps)...)
}
