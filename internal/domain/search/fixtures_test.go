package search

import (
	"time"

	"github.com/rpggio/civicmatch/internal/domain/project"
)

var base = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return base.Add(time.Duration(n) * 24 * time.Hour)
}

func ptr[T any](v T) *T {
	return &v
}

func fixtureProjects() []project.Project {
	return []project.Project{
		{
			ID: "p1", Title: "Water Access App", Description: "Map clean water points",
			TechnologyStack: []string{"React", "Go"}, DifficultyLevel: project.DifficultyBeginner,
			ApplicationType: project.ApplicationTeam, Status: project.StatusOpen, IsRemote: true,
			OrganizationName: "Clean Water Now", CreatedAt: day(1), Deadline: ptr(day(30)), TeamSize: 2,
		},
		{
			ID: "p2", Title: "Donor CRM", Description: "Track donations", Requirements: "SQL experience",
			TechnologyStack: []string{"Python"}, DifficultyLevel: project.DifficultyIntermediate,
			ApplicationType: project.ApplicationIndividual, Status: project.StatusOpen, IsRemote: false,
			OrganizationName: "Food Bank Alliance", CreatedAt: day(2), TeamSize: 1,
		},
		{
			ID: "p3", Title: "volunteer scheduler", Description: "Shift planning",
			TechnologyStack: []string{"TypeScript"}, DifficultyLevel: project.DifficultyAdvanced,
			ApplicationType: project.ApplicationBoth, Status: project.StatusInProgress, IsRemote: true,
			OrganizationName: "Shelter Network", CreatedAt: day(3), Deadline: ptr(day(10)), TeamSize: 4,
		},
		{
			ID: "p4", Title: "Archive Migration", Description: "Move records to the cloud",
			TechnologyStack: []string{"Go"}, DifficultyLevel: project.DifficultyAdvanced,
			ApplicationType: project.ApplicationTeam, Status: project.StatusCompleted, IsRemote: true,
			OrganizationName: "Clean Water Now", CreatedAt: day(4), TeamSize: 3,
		},
	}
}

func ids(projects []project.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}
