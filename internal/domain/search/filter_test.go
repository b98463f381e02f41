package search

import (
	"strings"
	"testing"

	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func TestDefaultStatusFilter(t *testing.T) {
	require.Equal(t, []project.Status{project.StatusOpen}, DefaultStatusFilter(profile.RoleAnonymous).Values)
	require.Equal(t, []project.Status{project.StatusOpen}, DefaultStatusFilter(profile.RoleOrganization).Values)
	require.Equal(t, []project.Status{project.StatusOpen, project.StatusInProgress}, DefaultStatusFilter(profile.RoleDeveloper).Values)
}

func TestFilter_RoleDefaults(t *testing.T) {
	projects := fixtureProjects()

	require.Equal(t, []string{"p1", "p2"}, ids(Filter(projects, Criteria{Role: profile.RoleAnonymous})))
	require.Equal(t, []string{"p1", "p2"}, ids(Filter(projects, Criteria{Role: profile.RoleOrganization})))
	require.Equal(t, []string{"p1", "p2", "p3"}, ids(Filter(projects, Criteria{Role: profile.RoleDeveloper})))

	explicit := Filters{Status: Only(project.StatusCompleted)}
	require.Equal(t, []string{"p4"}, ids(Filter(projects, Criteria{Role: profile.RoleDeveloper, Filters: explicit})))
}

func TestFilter_EmptySetsAreNoOps(t *testing.T) {
	projects := fixtureProjects()
	all := Only(project.StatusOpen, project.StatusInProgress, project.StatusCompleted)

	got := Filter(projects, Criteria{Filters: Filters{
		Status:          all,
		Technologies:    SetFilter[string]{},
		Difficulty:      SetFilter[project.Difficulty]{Values: []project.Difficulty{project.DifficultyBeginner}},
		ApplicationType: SetFilter[project.ApplicationType]{},
	}})
	require.Equal(t, ids(projects), ids(got))
}

func TestFilter_QueryMatchesEveryTextField(t *testing.T) {
	projects := fixtureProjects()
	all := Filters{Status: Only(project.StatusOpen, project.StatusInProgress, project.StatusCompleted)}

	cases := map[string][]string{
		"WATER":        {"p1", "p4"}, // title and organization name
		"donations":    {"p2"},       // description
		"sql":          {"p2"},       // requirements
		"typescript":   {"p3"},       // technology
		"shelter":      {"p3"},       // organization
		"  go ":        {"p1", "p4"},
		"nothing here": {},
	}
	for query, want := range cases {
		got := Filter(projects, Criteria{Query: query, Filters: all})
		require.Equal(t, want, ids(got), "query %q", query)

		needle := strings.ToLower(strings.TrimSpace(query))
		for _, p := range got {
			require.True(t, matchesQuery(p, needle), "project %s should contain %q", p.ID, needle)
		}
	}
}

func TestFilter_SingleValueSetsAreApplied(t *testing.T) {
	projects := fixtureProjects()

	got := Filter(projects, Criteria{Role: profile.RoleDeveloper, Filters: Filters{
		Difficulty: Only(project.DifficultyBeginner),
	}})
	require.Equal(t, []string{"p1"}, ids(got))

	got = Filter(projects, Criteria{Role: profile.RoleDeveloper, Filters: Filters{
		ApplicationType: Only(project.ApplicationIndividual),
	}})
	require.Equal(t, []string{"p2"}, ids(got))
}

func TestFilter_TechnologyRemoteAndDates(t *testing.T) {
	projects := fixtureProjects()
	role := profile.RoleDeveloper

	got := Filter(projects, Criteria{Role: role, Filters: Filters{Technologies: Only("go", "typescript")}})
	require.Equal(t, []string{"p1", "p3"}, ids(got))

	got = Filter(projects, Criteria{Role: role, Filters: Filters{IsRemote: ptr(false)}})
	require.Equal(t, []string{"p2"}, ids(got))

	got = Filter(projects, Criteria{Role: role, Filters: Filters{CreatedFrom: ptr(day(2)), CreatedTo: ptr(day(3))}})
	require.Equal(t, []string{"p2", "p3"}, ids(got))

	got = Filter(projects, Criteria{Role: role, Filters: Filters{CreatedTo: ptr(day(1))}})
	require.Equal(t, []string{"p1"}, ids(got))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	projects := fixtureProjects()
	before := ids(projects)
	_ = Filter(projects, Criteria{Query: "go", Role: profile.RoleDeveloper})
	require.Equal(t, before, ids(projects))
}

func TestFilter_EndToEndScenario(t *testing.T) {
	projects := []project.Project{
		{ID: "a", Title: "Water Access App", TechnologyStack: []string{"React"}, Status: project.StatusOpen},
		{ID: "b", Title: "Donor CRM", TechnologyStack: []string{"Python"}, Status: project.StatusOpen},
	}
	got := Filter(projects, Criteria{Query: "react", Filters: Filters{Status: Only(project.StatusOpen)}})
	require.Len(t, got, 1)
	require.Equal(t, "Water Access App", got[0].Title)
}
