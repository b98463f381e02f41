// Package testserver runs the full application over in-memory SQLite for end-to-end tests.
package testserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rpggio/civicmatch/internal/app"
	"github.com/rpggio/civicmatch/internal/config"
	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
}

// New starts a server with default configuration over an in-memory database.
// Options adjust the configuration before anything is opened.
func New(t *testing.T, opts ...func(*config.Config)) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	for _, opt := range opts {
		opt(&cfg)
	}
	require.NoError(t, cfg.Validate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores, err := app.OpenStores(context.Background(), cfg, logger)
	require.NoError(t, err)

	a, err := app.New(cfg, stores, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(a.Handler(ctx))

	t.Cleanup(func() {
		cancel()
		server.Close()
		a.Shutdown()
		_ = stores.Close()
	})

	return &TestServer{Server: server, App: a}
}

// Do sends a request as viewer using identity headers. A nil viewer is anonymous.
func (ts *TestServer) Do(t *testing.T, method, path, body string, viewer *profile.Viewer) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if viewer != nil {
		req.Header.Set(transport.HeaderUserID, viewer.ID)
		req.Header.Set(transport.HeaderUserRole, string(viewer.Role))
	}

	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// JSON sends a request, checks the status and decodes the body into out when non-nil.
func (ts *TestServer) JSON(t *testing.T, method, path, body string, viewer *profile.Viewer, wantStatus int, out any) {
	t.Helper()
	resp := ts.Do(t, method, path, body, viewer)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, string(data))
	if out != nil {
		require.NoError(t, json.Unmarshal(data, out))
	}
}
