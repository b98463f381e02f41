package search

import "github.com/rpggio/civicmatch/internal/domain/project"

// Page is one window of a sorted result set.
type Page struct {
	Projects   []project.Project
	TotalCount int
	Page       int
	Limit      int
}

// Paginate returns the 1-indexed page of the given size. Out-of-range pages are
// empty. The returned slice is a copy; the input is never modified.
func Paginate(projects []project.Project, page, size int) Page {
	if page < 1 {
		page = 1
	}
	result := Page{TotalCount: len(projects), Page: page, Limit: size, Projects: []project.Project{}}
	if size <= 0 {
		return result
	}

	pages := (len(projects) + size - 1) / size
	if page > pages {
		return result
	}
	start := (page - 1) * size
	end := min(start+size, len(projects))
	result.Projects = append(result.Projects, projects[start:end]...)
	return result
}
