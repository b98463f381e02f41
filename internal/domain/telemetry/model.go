package telemetry

import (
	"encoding/json"
	"strings"
	"time"
)

// SearchHistory is one search run by a signed-in user.
type SearchHistory struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	SearchTerm  string          `json:"search_term"`
	Filters     json.RawMessage `json:"filters,omitempty"`
	ResultCount int             `json:"result_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PopularSearch counts searches per normalized term.
type PopularSearch struct {
	Term         string    `json:"term"`
	SearchCount  int64     `json:"search_count"`
	LastSearched time.Time `json:"last_searched"`
}

// AnalyticsEvent is an append-only record of a search or a click on a result.
type AnalyticsEvent struct {
	ID               string    `json:"id"`
	SearchTerm       string    `json:"search_term"`
	UserID           *string   `json:"user_id"`
	ResultCount      int       `json:"result_count"`
	ClickedProjectID *string   `json:"clicked_project_id,omitempty"`
	ClickPosition    *int      `json:"click_position,omitempty"`
	SessionID        *string   `json:"session_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// SearchEvent describes a completed search handed to the recorder.
type SearchEvent struct {
	UserID      string
	Query       string
	Filters     any
	ResultCount int
	SessionID   string
	At          time.Time
}

// ClickEvent describes a click on a search result.
type ClickEvent struct {
	UserID      string    `json:"-"`
	Query       string    `json:"search_term"`
	ProjectID   string    `json:"clicked_project_id"`
	Position    int       `json:"click_position"`
	ResultCount int       `json:"result_count"`
	SessionID   string    `json:"session_id,omitempty"`
	At          time.Time `json:"-"`
}

// NormalizeTerm trims and lower-cases a search term for popularity counting.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
