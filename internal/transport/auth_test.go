package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/stretchr/testify/require"
)

type testResolver struct {
	tokens map[string]profile.Viewer
	err    error
}

func (r *testResolver) ResolveViewer(_ context.Context, token string) (profile.Viewer, error) {
	if r.err != nil {
		return profile.Viewer{}, r.err
	}
	v, ok := r.tokens[token]
	if !ok {
		return profile.Viewer{}, ErrUnauthorized
	}
	return v, nil
}

func serveWith(mw func(http.Handler) http.Handler, req *http.Request) (*httptest.ResponseRecorder, profile.Viewer) {
	var seen profile.Viewer
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ViewerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestAuthMiddleware(t *testing.T) {
	dev := profile.Viewer{ID: "dev-1", Role: profile.RoleDeveloper}
	resolver := &testResolver{tokens: map[string]profile.Viewer{"token": dev}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec, viewer := serveWith(AuthMiddleware(resolver), req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, dev, viewer)
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	org := profile.Viewer{ID: "org-1", Role: profile.RoleOrganization}
	resolver := &testResolver{tokens: map[string]profile.Viewer{"token": org}}

	req := httptest.NewRequest(http.MethodGet, "/stream?access_token=token", nil)
	rec, viewer := serveWith(AuthMiddleware(resolver), req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, org, viewer)
}

func TestAuthMiddleware_MissingTokenIsAnonymous(t *testing.T) {
	resolver := &testResolver{err: errors.New("should not be called")}

	rec, viewer := serveWith(AuthMiddleware(resolver), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, viewer.IsAnonymous())
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	resolver := &testResolver{err: errors.New("invalid")}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec, _ := serveWith(AuthMiddleware(resolver), req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"invalid bearer token"}`, rec.Body.String())
}

func TestHeaderIdentityMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "org-1")
	req.Header.Set(HeaderUserRole, "organization")
	_, viewer := serveWith(HeaderIdentityMiddleware, req)
	require.Equal(t, profile.Viewer{ID: "org-1", Role: profile.RoleOrganization}, viewer)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "someone")
	req.Header.Set(HeaderUserRole, "admin")
	_, viewer = serveWith(HeaderIdentityMiddleware, req)
	require.Equal(t, profile.RoleAnonymous, viewer.Role)
	require.True(t, viewer.IsAnonymous())
}

func TestRequireViewer(t *testing.T) {
	rec, _ := serveWith(RequireViewer, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithViewer(req.Context(), profile.Viewer{ID: "dev-1", Role: profile.RoleDeveloper}))
	rec, _ = serveWith(RequireViewer, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionMiddleware(t *testing.T) {
	var got string
	handler := SessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Mcp-Session-Id", "mcp-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "mcp-1", got)

	req.Header.Set("X-Session-Id", "web-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "web-1", got)
}
