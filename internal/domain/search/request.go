package search

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/project"
)

// WireFilters is the JSON shape of search filters sent by clients.
type WireFilters struct {
	Status          []string   `json:"status,omitempty"`
	TechnologyStack []string   `json:"technology_stack,omitempty"`
	DifficultyLevel []string   `json:"difficulty_level,omitempty"`
	ApplicationType []string   `json:"application_type,omitempty"`
	IsRemote        *bool      `json:"is_remote,omitempty"`
	DateRange       *DateRange `json:"date_range,omitempty"`
}

// DateRange bounds created_at. Either side may be empty.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// WireRequest is a search request as received over HTTP or MCP.
type WireRequest struct {
	Query     string      `json:"query"`
	Filters   WireFilters `json:"filters"`
	SortBy    string      `json:"sort_by,omitempty"`
	SortOrder string      `json:"sort_order,omitempty"`
	Page      int         `json:"page,omitempty"`
	Limit     int         `json:"limit,omitempty"`
}

// Request is a validated search request.
type Request struct {
	Query     string
	Filters   Filters
	SortBy    SortKey
	SortOrder SortOrder
	Page      int
	Limit     int
}

// Options holds paging and suggestion limits.
type Options struct {
	DefaultLimit    int
	MaxLimit        int
	SuggestionLimit int
}

func (o Options) withDefaults() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 20
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = 100
	}
	if o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = o.MaxLimit
	}
	if o.SuggestionLimit <= 0 {
		o.SuggestionLimit = 5
	}
	return o
}

// DecodeFilters decodes the JSON carried by the filters URL parameter.
func DecodeFilters(raw string) (WireFilters, error) {
	var wf WireFilters
	if strings.TrimSpace(raw) == "" {
		return wf, nil
	}
	if err := json.Unmarshal([]byte(raw), &wf); err != nil {
		return WireFilters{}, fmt.Errorf("decoding filters: %w", err)
	}
	return wf, nil
}

// ParseQuery reads a search request from URL parameters. Malformed values are
// logged and dropped so the search still runs with defaults.
func ParseQuery(values url.Values, logger *slog.Logger) WireRequest {
	logger = orDefault(logger)
	w := WireRequest{
		Query:     values.Get("q"),
		SortBy:    values.Get("sort_by"),
		SortOrder: values.Get("sort_order"),
	}
	if w.Query == "" {
		w.Query = values.Get("query")
	}

	if raw := values.Get("filters"); raw != "" {
		filters, err := DecodeFilters(raw)
		if err != nil {
			logger.Warn("ignoring malformed search filters", "filters", raw, "error", err)
		} else {
			w.Filters = filters
		}
	}
	w.Page = intParam(values, "page", logger)
	w.Limit = intParam(values, "limit", logger)
	return w
}

// Normalize validates a wire request. Invalid parts are logged and replaced
// with defaults rather than rejected.
func Normalize(w WireRequest, opts Options, logger *slog.Logger) Request {
	logger = orDefault(logger)
	opts = opts.withDefaults()

	req := Request{
		Query:   strings.TrimSpace(w.Query),
		Filters: normalizeFilters(w.Filters, logger),
		Page:    w.Page,
		Limit:   w.Limit,
	}

	var ok bool
	if req.SortBy, ok = ParseSortKey(w.SortBy); !ok && w.SortBy != "" {
		logger.Warn("unknown sort key, using relevance", "sort_by", w.SortBy)
	}
	if req.SortOrder, ok = ParseSortOrder(w.SortOrder); !ok && w.SortOrder != "" {
		logger.Warn("unknown sort order, using desc", "sort_order", w.SortOrder)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	switch {
	case req.Limit <= 0:
		req.Limit = opts.DefaultLimit
	case req.Limit > opts.MaxLimit:
		req.Limit = opts.MaxLimit
	}
	return req
}

func normalizeFilters(w WireFilters, logger *slog.Logger) Filters {
	f := Filters{
		Status:          parseSet(w.Status, "status", project.ParseStatus, logger),
		Difficulty:      parseSet(w.DifficultyLevel, "difficulty_level", project.ParseDifficulty, logger),
		ApplicationType: parseSet(w.ApplicationType, "application_type", project.ParseApplicationType, logger),
		Technologies: parseSet(w.TechnologyStack, "technology_stack", func(s string) (string, error) {
			s = strings.TrimSpace(s)
			if s == "" {
				return "", fmt.Errorf("empty technology")
			}
			return s, nil
		}, logger),
		IsRemote: w.IsRemote,
	}

	if w.DateRange != nil {
		if w.DateRange.Start != "" {
			if t, err := parseDate(w.DateRange.Start, false); err != nil {
				logger.Warn("ignoring malformed date_range.start", "value", w.DateRange.Start, "error", err)
			} else {
				f.CreatedFrom = &t
			}
		}
		if w.DateRange.End != "" {
			if t, err := parseDate(w.DateRange.End, true); err != nil {
				logger.Warn("ignoring malformed date_range.end", "value", w.DateRange.End, "error", err)
			} else {
				f.CreatedTo = &t
			}
		}
	}
	return f
}

// parseSet drops invalid values. The filter is active only if a valid value remains.
func parseSet[T comparable](raw []string, field string, parse func(string) (T, error), logger *slog.Logger) SetFilter[T] {
	var f SetFilter[T]
	for _, s := range raw {
		v, err := parse(s)
		if err != nil {
			logger.Warn("ignoring invalid filter value", "field", field, "value", s, "error", err)
			continue
		}
		f.Values = append(f.Values, v)
	}
	f.Active = len(f.Values) > 0
	return f
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain end date covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func intParam(values url.Values, name string, logger *slog.Logger) int {
	raw := values.Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("ignoring malformed search parameter", "param", name, "value", raw)
		return 0
	}
	return n
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
