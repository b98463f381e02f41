package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/civicmatch/internal/domain/dashboard"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
)

var (
	errAuthRequired = errors.New("sign in required")
	errNotOwner     = errors.New("dashboard belongs to another organization")
)

// APIError is a tool error with a stable code agents can branch on.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, errAuthRequired):
		return &APIError{Code: "AUTH_REQUIRED", Message: err.Error(), RecoveryHint: "Connect with a bearer token"}
	case errors.Is(err, errNotOwner):
		return &APIError{Code: "FORBIDDEN", Message: err.Error(), RecoveryHint: "Use your own organization_id"}
	case errors.Is(err, dashboard.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "organization_id is required"}
	case errors.Is(err, telemetry.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}

// toolError converts a service error for the tool result. Storage details are not exposed.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return &APIError{Code: "INTERNAL", Message: "request failed", RecoveryHint: "Retry later"}
}
