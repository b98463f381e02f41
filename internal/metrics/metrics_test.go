package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordTelemetry(t *testing.T) {
	before := testutil.ToFloat64(TelemetryEvents.WithLabelValues("search", "throttled"))
	RecordTelemetry("search", "throttled")
	RecordTelemetry("search", "throttled")
	require.Equal(t, before+2, testutil.ToFloat64(TelemetryEvents.WithLabelValues("search", "throttled")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveSearch("relevance", 3, 5*time.Millisecond)
	ObserveDashboardRefresh(errors.New("boom"), time.Millisecond)
	ObserveHTTPRequest(http.MethodGet, "/api/search", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "civicmatch_search_duration_seconds")
	require.Contains(t, body, `civicmatch_dashboard_refresh_duration_seconds_count{status="failed"}`)
	require.Contains(t, body, "civicmatch_http_request_duration_seconds")
}
