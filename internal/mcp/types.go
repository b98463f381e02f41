package mcp

import (
	"github.com/rpggio/civicmatch/internal/domain/search"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
)

type SearchProjectsParams struct {
	Query     string             `json:"query,omitempty" jsonschema:"free text matched against title, description, organization name and technologies"`
	Filters   search.WireFilters `json:"filters,omitempty" jsonschema:"optional filters; an omitted filter does not restrict results"`
	SortBy    string             `json:"sort_by,omitempty" jsonschema:"relevance, created_at, deadline, title or popularity"`
	SortOrder string             `json:"sort_order,omitempty" jsonschema:"asc or desc"`
	Page      int                `json:"page,omitempty" jsonschema:"1-based page number"`
	Limit     int                `json:"limit,omitempty" jsonschema:"page size, at most 100"`
}

func (p SearchProjectsParams) wire() search.WireRequest {
	return search.WireRequest{
		Query:     p.Query,
		Filters:   p.Filters,
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
		Page:      p.Page,
		Limit:     p.Limit,
	}
}

type GetSuggestionsParams struct {
	Query string `json:"query,omitempty" jsonschema:"partial search text; empty returns popular terms"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of suggestions"`
}

type GetPopularSearchesParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of terms"`
}

type GetSearchHistoryParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of entries, newest first"`
}

type RecordSearchClickParams struct {
	SearchTerm  string `json:"search_term,omitempty" jsonschema:"query that produced the result"`
	ProjectID   string `json:"project_id" jsonschema:"clicked project"`
	Position    int    `json:"position,omitempty" jsonschema:"0-based position of the project in the result page"`
	ResultCount int    `json:"result_count,omitempty" jsonschema:"total results of the search"`
}

type OrganizationParams struct {
	OrganizationID string `json:"organization_id" jsonschema:"organization profile id; must be the caller"`
}

type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

type PopularSearchesResponse struct {
	Searches []telemetry.PopularSearch `json:"searches"`
}

type SearchHistoryResponse struct {
	History []telemetry.SearchHistory `json:"history"`
}

type RecordClickResponse struct {
	Recorded bool `json:"recorded"`
}
