package search

import (
	"strings"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/domain/project"
)

// SetFilter is an inclusion filter over a set of values. It applies only when Active.
type SetFilter[T comparable] struct {
	Active bool `json:"active"`
	Values []T  `json:"values,omitempty"`
}

// Only builds an active filter over the given values.
func Only[T comparable](values ...T) SetFilter[T] {
	return SetFilter[T]{Active: true, Values: values}
}

// Allows reports whether v passes the filter.
func (f SetFilter[T]) Allows(v T) bool {
	if !f.Active {
		return true
	}
	for _, want := range f.Values {
		if want == v {
			return true
		}
	}
	return false
}

// Filters holds every optional predicate of a search.
type Filters struct {
	Status          SetFilter[project.Status]          `json:"status"`
	Technologies    SetFilter[string]                  `json:"technology_stack"`
	Difficulty      SetFilter[project.Difficulty]      `json:"difficulty_level"`
	ApplicationType SetFilter[project.ApplicationType] `json:"application_type"`
	IsRemote        *bool                              `json:"is_remote,omitempty"`
	CreatedFrom     *time.Time                         `json:"created_from,omitempty"`
	CreatedTo       *time.Time                         `json:"created_to,omitempty"`
}

// Criteria is the full input of the filter stage.
type Criteria struct {
	Query   string
	Filters Filters
	Role    profile.Role
}

// DefaultStatusFilter is the status set applied when the caller did not choose one.
func DefaultStatusFilter(role profile.Role) SetFilter[project.Status] {
	if role == profile.RoleDeveloper {
		return Only(project.StatusOpen, project.StatusInProgress)
	}
	return Only(project.StatusOpen)
}

// EffectiveStatus returns the explicit status filter, or the role default.
func EffectiveStatus(f Filters, role profile.Role) SetFilter[project.Status] {
	if f.Status.Active {
		return f.Status
	}
	return DefaultStatusFilter(role)
}

// Filter returns the projects matching every active predicate, in input order.
// The input slice is not modified.
func Filter(projects []project.Project, c Criteria) []project.Project {
	status := EffectiveStatus(c.Filters, c.Role)
	query := strings.ToLower(strings.TrimSpace(c.Query))
	techs := lowerSet(c.Filters.Technologies)

	out := make([]project.Project, 0, len(projects))
	for _, p := range projects {
		if !status.Allows(p.Status) {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		if !c.Filters.Difficulty.Allows(p.DifficultyLevel) {
			continue
		}
		if !c.Filters.ApplicationType.Allows(p.ApplicationType) {
			continue
		}
		if c.Filters.Technologies.Active && !usesAny(p, techs) {
			continue
		}
		if c.Filters.IsRemote != nil && p.IsRemote != *c.Filters.IsRemote {
			continue
		}
		if c.Filters.CreatedFrom != nil && p.CreatedAt.Before(*c.Filters.CreatedFrom) {
			continue
		}
		if c.Filters.CreatedTo != nil && p.CreatedAt.After(*c.Filters.CreatedTo) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// matchesQuery expects query already lower-cased.
func matchesQuery(p project.Project, query string) bool {
	if containsFold(p.Title, query) ||
		containsFold(p.Description, query) ||
		containsFold(p.Requirements, query) ||
		containsFold(p.OrganizationName, query) {
		return true
	}
	for _, tech := range p.TechnologyStack {
		if containsFold(tech, query) {
			return true
		}
	}
	return false
}

func containsFold(s, lowerSub string) bool {
	return strings.Contains(strings.ToLower(s), lowerSub)
}

func usesAny(p project.Project, techs map[string]struct{}) bool {
	for _, tech := range p.TechnologyStack {
		if _, ok := techs[strings.ToLower(strings.TrimSpace(tech))]; ok {
			return true
		}
	}
	return false
}

func lowerSet(f SetFilter[string]) map[string]struct{} {
	set := make(map[string]struct{}, len(f.Values))
	for _, v := range f.Values {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return set
}
