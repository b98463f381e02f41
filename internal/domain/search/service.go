package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
	"github.com/rpggio/civicmatch/internal/metrics"
)

const popularCandidates = 20

// ProjectSource loads the working set of projects for a search.
type ProjectSource interface {
	ListForSearch(ctx context.Context) ([]project.Project, error)
}

// PopularTerms lists the most searched terms.
type PopularTerms interface {
	Top(ctx context.Context, limit int) ([]telemetry.PopularSearch, error)
}

// Recorder receives completed searches. It must not block.
type Recorder interface {
	Dispatch(ev telemetry.SearchEvent)
}

// Response is the result of one search.
type Response struct {
	Projects    []project.Project `json:"projects"`
	TotalCount  int               `json:"total_count"`
	SearchTime  int64             `json:"search_time"`
	Suggestions []string          `json:"suggestions"`
	Page        int               `json:"page"`
	Limit       int               `json:"limit"`
}

// Service runs searches over the project working set.
type Service struct {
	projects ProjectSource
	popular  PopularTerms
	recorder Recorder
	opts     Options
	logger   *slog.Logger
}

// NewService creates a search service. popular and recorder may be nil.
func NewService(projects ProjectSource, popular PopularTerms, recorder Recorder, opts Options, logger *slog.Logger) *Service {
	return &Service{
		projects: projects,
		popular:  popular,
		recorder: recorder,
		opts:     opts.withDefaults(),
		logger:   orDefault(logger),
	}
}

// Normalize validates a wire request using the service's limits.
func (s *Service) Normalize(w WireRequest) Request {
	return Normalize(w, s.opts, s.logger)
}

// Search loads the working set, then filters, sorts and paginates it. A search
// with a non-blank query is handed to the recorder after the result is built.
func (s *Service) Search(ctx context.Context, viewer profile.Viewer, req Request, sessionID string) (*Response, error) {
	working, err := s.projects.ListForSearch(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}

	// search_time covers filter, sort and paginate only.
	start := time.Now()

	filtered := Filter(working, Criteria{Query: req.Query, Filters: req.Filters, Role: viewer.Role})
	sorted := Sort(filtered, req.SortBy, req.SortOrder)
	page := Paginate(sorted, req.Page, req.Limit)
	elapsed := time.Since(start)
	metrics.ObserveSearch(string(req.SortBy), page.TotalCount, elapsed)

	resp := &Response{
		Projects:    page.Projects,
		TotalCount:  page.TotalCount,
		SearchTime:  elapsed.Milliseconds(),
		Suggestions: []string{},
		Page:        page.Page,
		Limit:       page.Limit,
	}

	if req.Query == "" {
		return resp, nil
	}

	resp.Suggestions = s.suggest(ctx, req.Query, visible(working, viewer.Role), s.opts.SuggestionLimit)
	if s.recorder != nil {
		s.recorder.Dispatch(telemetry.SearchEvent{
			UserID:      userID(viewer),
			Query:       req.Query,
			Filters:     req.Filters.Wire(),
			ResultCount: page.TotalCount,
			SessionID:   sessionID,
			At:          time.Now().UTC(),
		})
	}
	return resp, nil
}

// Suggestions returns completions for a partial query.
func (s *Service) Suggestions(ctx context.Context, viewer profile.Viewer, input string, limit int) ([]string, error) {
	if limit <= 0 || limit > s.opts.SuggestionLimit*4 {
		limit = s.opts.SuggestionLimit
	}
	working, err := s.projects.ListForSearch(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	return s.suggest(ctx, input, visible(working, viewer.Role), limit), nil
}

func (s *Service) suggest(ctx context.Context, input string, projects []project.Project, limit int) []string {
	var candidates []string
	if s.popular != nil {
		terms, err := s.popular.Top(ctx, popularCandidates)
		if err != nil {
			s.logger.Warn("popular searches unavailable for suggestions", "error", err)
		}
		for _, t := range terms {
			candidates = append(candidates, t.Term)
		}
	}
	candidates = append(candidates, suggestionCandidates(projects)...)
	return Suggest(input, candidates, limit)
}

// visible keeps only projects the role would see without explicit filters.
func visible(projects []project.Project, role profile.Role) []project.Project {
	return Filter(projects, Criteria{Role: role})
}

func userID(v profile.Viewer) string {
	if v.IsAnonymous() {
		return ""
	}
	return v.ID
}

// Wire converts filters back to their client-facing shape.
func (f Filters) Wire() WireFilters {
	w := WireFilters{IsRemote: f.IsRemote}
	if f.Status.Active {
		for _, v := range f.Status.Values {
			w.Status = append(w.Status, string(v))
		}
	}
	if f.Technologies.Active {
		w.TechnologyStack = append(w.TechnologyStack, f.Technologies.Values...)
	}
	if f.Difficulty.Active {
		for _, v := range f.Difficulty.Values {
			w.DifficultyLevel = append(w.DifficultyLevel, string(v))
		}
	}
	if f.ApplicationType.Active {
		for _, v := range f.ApplicationType.Values {
			w.ApplicationType = append(w.ApplicationType, string(v))
		}
	}
	if f.CreatedFrom != nil || f.CreatedTo != nil {
		w.DateRange = &DateRange{}
		if f.CreatedFrom != nil {
			w.DateRange.Start = f.CreatedFrom.Format(time.RFC3339)
		}
		if f.CreatedTo != nil {
			w.DateRange.End = f.CreatedTo.Format(time.RFC3339)
		}
	}
	return w
}
