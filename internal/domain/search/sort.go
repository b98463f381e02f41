package search

import (
	"cmp"
	"slices"

	"github.com/rpggio/civicmatch/internal/domain/project"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the comparator used to order results.
type SortKey string

const (
	SortRelevance  SortKey = "relevance"
	SortCreatedAt  SortKey = "created_at"
	SortDeadline   SortKey = "deadline"
	SortTitle      SortKey = "title"
	SortPopularity SortKey = "popularity"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseSortKey validates a sort key.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(s); k {
	case SortRelevance, SortCreatedAt, SortDeadline, SortTitle, SortPopularity:
		return k, true
	}
	return SortRelevance, false
}

// ParseSortOrder validates a sort direction.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch o := SortOrder(s); o {
	case OrderAsc, OrderDesc:
		return o, true
	}
	return OrderDesc, false
}

// Sort returns a stably sorted copy of projects. Projects without a deadline
// always come last when sorting by deadline. Relevance has no scoring model and
// orders by newest first regardless of order.
func Sort(projects []project.Project, key SortKey, order SortOrder) []project.Project {
	out := slices.Clone(projects)
	if len(out) < 2 {
		return out
	}

	if key == SortRelevance {
		slices.SortStableFunc(out, func(a, b project.Project) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		return out
	}

	dir := 1
	if order != OrderAsc {
		dir = -1
	}

	var compare func(a, b project.Project) int
	switch key {
	case SortDeadline:
		compare = func(a, b project.Project) int {
			switch {
			case a.Deadline == nil && b.Deadline == nil:
				return 0
			case a.Deadline == nil:
				return 1
			case b.Deadline == nil:
				return -1
			}
			return dir * a.Deadline.Compare(*b.Deadline)
		}
	case SortTitle:
		// Collators keep internal buffers, so each call gets its own.
		col := collate.New(language.English, collate.IgnoreCase)
		compare = func(a, b project.Project) int {
			return dir * col.CompareString(a.Title, b.Title)
		}
	case SortPopularity:
		compare = func(a, b project.Project) int {
			return dir * cmp.Compare(a.TeamSize, b.TeamSize)
		}
	default:
		compare = func(a, b project.Project) int {
			return dir * a.CreatedAt.Compare(b.CreatedAt)
		}
	}

	slices.SortStableFunc(out, compare)
	return out
}
