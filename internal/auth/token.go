// Package auth issues and verifies the bearer tokens that carry a viewer's identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rpggio/civicmatch/internal/domain/profile"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingKey   = errors.New("signing secret is empty")
)

const defaultTTL = 24 * time.Hour

// Claims carries the viewer role next to the registered claims. Subject is the profile ID.
type Claims struct {
	Role profile.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a token manager. A zero ttl uses one day.
func NewManager(secret, issuer string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingKey
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for viewer.
func (m *Manager) Issue(viewer profile.Viewer) (string, error) {
	if viewer.IsAnonymous() {
		return "", fmt.Errorf("%w: anonymous viewer", ErrInvalidToken)
	}
	now := m.now()
	claims := Claims{
		Role: viewer.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   viewer.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a token.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(m.now)}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ResolveViewer turns a bearer token into the viewer it names.
func (m *Manager) ResolveViewer(_ context.Context, token string) (profile.Viewer, error) {
	claims, err := m.Verify(token)
	if err != nil {
		return profile.Anonymous(), err
	}
	role := profile.ParseRole(string(claims.Role))
	if role == profile.RoleAnonymous {
		return profile.Anonymous(), fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return profile.Viewer{ID: claims.Subject, Role: role}, nil
}
