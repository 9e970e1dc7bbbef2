package upstream

import (
	"errors"
	"fmt"
)

// The platform returns loosely-typed JSON with a string error code.
// Responses are mapped onto a closed set of outcomes at this boundary:
// success, auth failure, permission failure, not found, or a generic
// APIError; nothing dynamic leaks past this package.

// errorEnvelope is the error block every platform response carries.
// Code "ok" (or empty) means success.
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

// APIError is a platform failure that fits none of the typed variants.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform api error %s: %s", e.Code, e.Message)
}

var (
	// ErrAuthExpired marks auth-class failures: the access token was
	// rejected. The invoker treats this as the refresh-and-retry signal.
	ErrAuthExpired = errors.New("access token invalid or expired")

	// ErrPermission marks a scope the account owner did not grant. This is
	// user-actionable (re-authorize with more scopes), not a generic failure.
	ErrPermission = errors.New("requested scope not granted")

	// ErrNotFound marks a missing user or video.
	ErrNotFound = errors.New("resource not found")
)

func (e errorEnvelope) classify() error {
	switch e.Code {
	case "", "ok":
		return nil
	case "access_token_invalid", "access_token_expired", "401":
		return fmt.Errorf("%w: %s", ErrAuthExpired, e.Message)
	case "scope_not_authorized", "scope_permission_missed":
		return fmt.Errorf("%w: %s", ErrPermission, e.Message)
	case "user_not_found", "video_not_found", "404":
		return fmt.Errorf("%w: %s", ErrNotFound, e.Message)
	default:
		return &APIError{Code: e.Code, Message: e.Message}
	}
}
