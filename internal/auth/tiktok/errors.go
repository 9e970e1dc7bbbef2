package tiktok

import "fmt"

// AuthExchangeError indicates the authorization code or PKCE verifier was
// rejected by the token endpoint. Never retried.
type AuthExchangeError struct {
	Err error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthExchangeError) Unwrap() error { return e.Err }

// TokenRefreshError indicates the refresh token was rejected or has
// expired. Propagated so the user can be asked to re-authorize.
type TokenRefreshError struct {
	Err error
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *TokenRefreshError) Unwrap() error { return e.Err }
