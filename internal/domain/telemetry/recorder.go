package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/civicmatch/internal/metrics"
	"golang.org/x/time/rate"
)

const defaultWriteTimeout = 5 * time.Second

// RecorderConfig wires the recorder's stores. Nil stores are skipped.
type RecorderConfig struct {
	History    HistoryRepository
	Popularity PopularityStore
	Analytics  []AnalyticsSink

	// RatePerSecond throttles dispatched events; zero or less disables throttling.
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
}

// Recorder writes search history, popularity counters and analytics events.
// Every failure is logged and swallowed: nothing here may affect a search result.
type Recorder struct {
	history    HistoryRepository
	popularity PopularityStore
	analytics  []AnalyticsSink
	limiter    *rate.Limiter
	timeout    time.Duration
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// NewRecorder creates a recorder.
func NewRecorder(cfg RecorderConfig, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Recorder{
		history:    cfg.History,
		popularity: cfg.Popularity,
		analytics:  cfg.Analytics,
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    timeout,
		logger:     logger,
	}
}

// RecordSearch appends history, bumps the popularity counter and emits an
// analytics event. Searches with a blank query are ignored.
func (r *Recorder) RecordSearch(ctx context.Context, ev SearchEvent) {
	term := strings.TrimSpace(ev.Query)
	if term == "" {
		return
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if r.history != nil && ev.UserID != "" {
		entry := &SearchHistory{
			ID:          uuid.NewString(),
			UserID:      ev.UserID,
			SearchTerm:  term,
			Filters:     r.snapshot(ev.Filters),
			ResultCount: ev.ResultCount,
			CreatedAt:   at,
		}
		r.outcome("history", r.history.Append(ctx, entry))
	}

	if r.popularity != nil {
		r.outcome("popularity", r.popularity.Increment(ctx, NormalizeTerm(term), at))
	}

	r.emit(ctx, &AnalyticsEvent{
		ID:          uuid.NewString(),
		SearchTerm:  term,
		UserID:      optional(ev.UserID),
		ResultCount: ev.ResultCount,
		SessionID:   optional(ev.SessionID),
		CreatedAt:   at,
	})
}

// RecordClick emits an analytics event for a clicked search result.
func (r *Recorder) RecordClick(ctx context.Context, ev ClickEvent) {
	if strings.TrimSpace(ev.ProjectID) == "" {
		return
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	position := ev.Position
	r.emit(ctx, &AnalyticsEvent{
		ID:               uuid.NewString(),
		SearchTerm:       strings.TrimSpace(ev.Query),
		UserID:           optional(ev.UserID),
		ResultCount:      ev.ResultCount,
		ClickedProjectID: optional(ev.ProjectID),
		ClickPosition:    &position,
		SessionID:        optional(ev.SessionID),
		CreatedAt:        at,
	})
}

// Dispatch records a search in the background on a detached context.
func (r *Recorder) Dispatch(ev SearchEvent) {
	if strings.TrimSpace(ev.Query) == "" {
		return
	}
	if !r.limiter.Allow() {
		metrics.RecordTelemetry("search", "throttled")
		r.logger.Debug("search telemetry throttled", "term", ev.Query)
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.RecordSearch(ctx, ev)
	}()
}

// DispatchClick records a click in the background on a detached context.
func (r *Recorder) DispatchClick(ev ClickEvent) {
	if !r.limiter.Allow() {
		metrics.RecordTelemetry("click", "throttled")
		r.logger.Debug("click telemetry throttled", "project_id", ev.ProjectID)
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.RecordClick(ctx, ev)
	}()
}

// Wait blocks until dispatched writes finish.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) emit(ctx context.Context, event *AnalyticsEvent) {
	for _, sink := range r.analytics {
		r.outcome("analytics", sink.Record(ctx, event))
	}
}

func (r *Recorder) outcome(kind string, err error) {
	if err != nil {
		metrics.RecordTelemetry(kind, "failed")
		r.logger.Warn("search telemetry write failed", "kind", kind, "error", err)
		return
	}
	metrics.RecordTelemetry(kind, "ok")
}

func (r *Recorder) snapshot(filters any) json.RawMessage {
	if filters == nil {
		return json.RawMessage(`{}`)
	}
	data, err := json.Marshal(filters)
	if err != nil {
		r.logger.Warn("filter snapshot not serializable", "error", err)
		return json.RawMessage(`{}`)
	}
	return data
}
