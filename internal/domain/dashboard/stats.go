package dashboard

import (
	"math"
	"sort"
	"strings"

	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/domain/project"
)

// ComputeOrganizationStats reduces an organization's projects and applications
// into dashboard counters. Empty input yields zero values.
func ComputeOrganizationStats(projects []project.Project, apps []application.Application) OrganizationStats {
	var stats OrganizationStats

	stats.TotalProjects = len(projects)
	for _, p := range projects {
		if p.IsActive() {
			stats.ActiveProjects++
		}
		if p.Status == project.StatusCompleted {
			stats.CompletedProjects++
		}
	}

	var respondedHours float64
	var responded int
	members := make(map[string]struct{})

	stats.TotalApplications = len(apps)
	for _, app := range apps {
		switch app.Status {
		case application.StatusPending:
			stats.PendingApplications++
		case application.StatusAccepted:
			stats.AcceptedApplications++
			members[app.DeveloperID] = struct{}{}
		case application.StatusRejected:
			stats.RejectedApplications++
		}
		if app.Responded() {
			respondedHours += app.UpdatedAt.Sub(app.CreatedAt).Hours()
			responded++
		}
	}

	stats.AcceptanceRate = percent(stats.AcceptedApplications, stats.TotalApplications)
	if responded > 0 {
		stats.AverageResponseTime = int(math.Round(respondedHours / float64(responded)))
	}
	stats.TotalTeamMembers = len(members)
	return stats
}

// ComputeTeamAnalytics groups accepted applications by project.
func ComputeTeamAnalytics(projects []project.Project, apps []application.Application) TeamAnalytics {
	titles := make(map[string]string, len(projects))
	byProject := make(map[string][]application.Application, len(projects))
	for _, p := range projects {
		titles[p.ID] = p.Title
		byProject[p.ID] = nil
	}

	members := make(map[string]struct{})
	accepted := 0
	for _, app := range apps {
		if app.Status != application.StatusAccepted {
			continue
		}
		accepted++
		members[app.DeveloperID] = struct{}{}
		byProject[app.ProjectID] = append(byProject[app.ProjectID], app)
		if _, ok := titles[app.ProjectID]; !ok {
			titles[app.ProjectID] = app.ProjectTitle
		}
	}

	teams := make([]ProjectTeam, 0, len(byProject))
	for id, projectApps := range byProject {
		teams = append(teams, ProjectTeam{
			ProjectID:    id,
			ProjectTitle: titles[id],
			Members:      application.Members(projectApps),
		})
	}
	sort.Slice(teams, func(i, j int) bool {
		ti, tj := strings.ToLower(teams[i].ProjectTitle), strings.ToLower(teams[j].ProjectTitle)
		if ti != tj {
			return ti < tj
		}
		return teams[i].ProjectID < teams[j].ProjectID
	})

	analytics := TeamAnalytics{
		TotalMembers: len(members),
		ProjectTeams: teams,
	}
	if len(members) > 0 {
		analytics.AverageProjectsPerMember = round2(float64(accepted) / float64(len(members)))
	}
	return analytics
}

// BuildDashboardProjects attaches application counts to each project, newest first.
func BuildDashboardProjects(projects []project.Project, apps []application.Application) []DashboardProject {
	type counts struct{ total, pending, accepted int }
	byProject := make(map[string]counts, len(projects))
	for _, app := range apps {
		c := byProject[app.ProjectID]
		c.total++
		switch app.Status {
		case application.StatusPending:
			c.pending++
		case application.StatusAccepted:
			c.accepted++
		}
		byProject[app.ProjectID] = c
	}

	out := make([]DashboardProject, 0, len(projects))
	for _, p := range projects {
		c := byProject[p.ID]
		out = append(out, DashboardProject{
			Project:          p,
			ApplicationCount: c.total,
			PendingCount:     c.pending,
			AcceptedCount:    c.accepted,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Summaries flattens applications into inbox rows, newest first.
func Summaries(apps []application.Application) []ApplicationSummary {
	out := make([]ApplicationSummary, 0, len(apps))
	for _, app := range apps {
		out = append(out, ApplicationSummary{
			ID:            app.ID,
			ProjectID:     app.ProjectID,
			ProjectTitle:  app.ProjectTitle,
			DeveloperID:   app.DeveloperID,
			DeveloperName: app.DeveloperName,
			Status:        app.Status,
			StatusManager: app.StatusManager,
			CreatedAt:     app.CreatedAt,
			UpdatedAt:     app.UpdatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ComputeDeveloperStats reduces a developer's applications.
func ComputeDeveloperStats(apps []application.Application) DeveloperStats {
	var stats DeveloperStats
	active := make(map[string]struct{})
	stats.TotalApplications = len(apps)
	for _, app := range apps {
		switch app.Status {
		case application.StatusPending:
			stats.PendingApplications++
		case application.StatusAccepted:
			stats.AcceptedApplications++
			active[app.ProjectID] = struct{}{}
		case application.StatusRejected:
			stats.RejectedApplications++
		}
	}
	stats.ActiveProjects = len(active)
	return stats
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
