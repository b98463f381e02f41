package activity

import "time"

// Type represents the kind of team event.
type Type string

const (
	TypeApplicationSubmitted Type = "application_submitted"
	TypeApplicationAccepted  Type = "application_accepted"
	TypeApplicationRejected  Type = "application_rejected"
	TypeApplicationWithdrawn Type = "application_withdrawn"
	TypeMemberRemoved        Type = "member_removed"
	TypeStatusManagerGranted Type = "status_manager_granted"
	TypeStatusManagerRevoked Type = "status_manager_revoked"
	TypeProjectStatusChanged Type = "project_status_changed"
)

// Entry is one row of a project's team activity log.
type Entry struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"project_id"`
	ActorID   string    `json:"actor_id"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details,omitempty"` // JSON string
	CreatedAt time.Time `json:"created_at"`
}
