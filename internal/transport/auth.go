package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rpggio/civicmatch/internal/domain/profile"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Headers carrying the caller identity when token auth is disabled.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

type viewerKey struct{}

// ViewerResolver resolves a viewer from a bearer token.
type ViewerResolver interface {
	ResolveViewer(ctx context.Context, token string) (profile.Viewer, error)
}

// ViewerFromContext returns the viewer stored by the auth middleware, or the anonymous viewer.
func ViewerFromContext(ctx context.Context) profile.Viewer {
	if v, ok := ctx.Value(viewerKey{}).(profile.Viewer); ok {
		return v
	}
	return profile.Anonymous()
}

// WithViewer stores a viewer in the context.
func WithViewer(ctx context.Context, v profile.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// AuthMiddleware resolves the caller from a bearer token. Requests without a
// token continue as anonymous; requests with an unusable token are rejected.
func AuthMiddleware(resolver ViewerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			viewer, err := resolver.ResolveViewer(r.Context(), token)
			if err != nil || viewer.ID == "" {
				writeError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}

// HeaderIdentityMiddleware trusts identity headers. Used when token auth is disabled.
func HeaderIdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		viewer := profile.Viewer{ID: id, Role: profile.ParseRole(r.Header.Get(HeaderUserRole))}
		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
	})
}

// RequireViewer rejects anonymous callers.
func RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ViewerFromContext(r.Context()).IsAnonymous() {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// WebSocket upgrades, so the access_token query parameter is accepted too.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
