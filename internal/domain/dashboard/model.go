package dashboard

import (
	"time"

	"github.com/rpggio/civicmatch/internal/domain/activity"
	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/domain/project"
)

// OrganizationStats are the headline counters of an organization dashboard.
type OrganizationStats struct {
	TotalProjects        int     `json:"totalProjects"`
	ActiveProjects       int     `json:"activeProjects"`
	CompletedProjects    int     `json:"completedProjects"`
	TotalApplications    int     `json:"totalApplications"`
	PendingApplications  int     `json:"pendingApplications"`
	AcceptedApplications int     `json:"acceptedApplications"`
	RejectedApplications int     `json:"rejectedApplications"`
	AcceptanceRate       float64 `json:"acceptanceRate"`
	AverageResponseTime  int     `json:"averageResponseTime"` // hours
	TotalTeamMembers     int     `json:"totalTeamMembers"`
}

// ProjectTeam lists the accepted developers of one project.
type ProjectTeam struct {
	ProjectID    string                   `json:"projectId"`
	ProjectTitle string                   `json:"projectTitle"`
	Members      []application.TeamMember `json:"members"`
}

// TeamAnalytics summarizes team membership across an organization's projects.
type TeamAnalytics struct {
	TotalMembers             int           `json:"totalMembers"`
	AverageProjectsPerMember float64       `json:"averageProjectsPerMember"`
	ProjectTeams             []ProjectTeam `json:"projectTeams"`
}

// DashboardProject is a project card with its application counts.
type DashboardProject struct {
	project.Project
	ApplicationCount int `json:"application_count"`
	PendingCount     int `json:"pending_count"`
	AcceptedCount    int `json:"accepted_count"`
}

// ApplicationSummary is one row of the organization's application inbox.
type ApplicationSummary struct {
	ID            string             `json:"id"`
	ProjectID     string             `json:"project_id"`
	ProjectTitle  string             `json:"project_title"`
	DeveloperID   string             `json:"developer_id"`
	DeveloperName string             `json:"developer_name"`
	Status        application.Status `json:"status"`
	StatusManager bool               `json:"status_manager"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Snapshot is a full organization dashboard refresh.
type Snapshot struct {
	Stats          OrganizationStats    `json:"stats"`
	Projects       []DashboardProject   `json:"projects"`
	Applications   []ApplicationSummary `json:"applications"`
	TeamAnalytics  TeamAnalytics        `json:"teamAnalytics"`
	RecentActivity []activity.Entry     `json:"recentActivity"`
	LastUpdated    time.Time            `json:"lastUpdated"`
}

// DeveloperStats are the headline counters of a developer dashboard.
type DeveloperStats struct {
	TotalApplications    int `json:"totalApplications"`
	PendingApplications  int `json:"pendingApplications"`
	AcceptedApplications int `json:"acceptedApplications"`
	RejectedApplications int `json:"rejectedApplications"`
	ActiveProjects       int `json:"activeProjects"`
}
