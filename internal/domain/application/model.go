package application

import "time"

// Status represents where an application is in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
	StatusRemoved   Status = "removed"
)

// Application is a developer's request to join a project.
type Application struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	DeveloperID   string    `json:"developer_id"`
	Status        Status    `json:"status"`
	StatusManager bool      `json:"status_manager"`
	CoverLetter   string    `json:"cover_letter,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"` // last status change

	// Read-side fields joined in by the store.
	DeveloperName string `json:"developer_name,omitempty"`
	ProjectTitle  string `json:"project_title,omitempty"`
}

// Live reports whether the application still occupies the developer's slot on the project.
func (a Application) Live() bool {
	return a.Status != StatusWithdrawn && a.Status != StatusRemoved
}

// Responded reports whether the organization has acted on the application.
func (a Application) Responded() bool {
	return a.Status != StatusPending
}
