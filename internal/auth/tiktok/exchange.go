package tiktok

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/cliprally/cliprally/internal/config"
)

// TokenPair is the result of a code or refresh-token exchange. Neither
// exchange invalidates prior tokens upstream; persisting the new pair and
// discarding the old one is the caller's responsibility.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
	OpenID       string
}

// Exchanger talks to the platform token endpoint.
type Exchanger interface {
	// ExchangeCode trades an authorization code plus PKCE verifier for a
	// token pair via a grant_type=authorization_code form POST.
	ExchangeCode(ctx context.Context, code, verifier, redirectURI string) (*TokenPair, error)
	// Refresh trades a refresh token for a new pair via
	// grant_type=refresh_token.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// Client implements Exchanger against the real token endpoint.
type Client struct {
	cfg config.TikTokConfig
}

// NewClient returns a token exchange client for the configured app.
func NewClient(cfg config.TikTokConfig) *Client {
	return &Client{cfg: cfg}
}

func (c *Client) ExchangeCode(ctx context.Context, code, verifier, redirectURI string) (*TokenPair, error) {
	conf := GetOAuthConfig(c.cfg, redirectURI)

	opts := []oauth2.AuthCodeOption{}
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	tok, err := conf.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, &AuthExchangeError{Err: err}
	}
	return pairFromToken(tok), nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	conf := GetOAuthConfig(c.cfg, c.cfg.RedirectURL)

	src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, &TokenRefreshError{Err: err}
	}
	pair := pairFromToken(tok)
	// The platform may choose not to rotate the refresh token.
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	return pair, nil
}

func pairFromToken(tok *oauth2.Token) *TokenPair {
	pair := &TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		pair.Scope = scope
	}
	if openID, ok := tok.Extra("open_id").(string); ok {
		pair.OpenID = openID
	}
	if pair.ExpiresAt.IsZero() {
		// Every stored access token must carry an expiry.
		pair.ExpiresAt = time.Now().Add(time.Hour)
	}
	return pair
}

// MockExchanger stands in when no platform credentials are configured so
// the rest of the stack stays developable. Codes prefixed "bad-" fail.
type MockExchanger struct{}

func (MockExchanger) ExchangeCode(_ context.Context, code, _, _ string) (*TokenPair, error) {
	if code == "" || strings.HasPrefix(code, "bad-") {
		return nil, &AuthExchangeError{Err: fmt.Errorf("mock: code %q rejected", code)}
	}
	return &TokenPair{
		AccessToken:  "mock-access-" + code,
		RefreshToken: "mock-refresh-" + code,
		ExpiresAt:    time.Now().Add(time.Hour),
		Scope:        strings.Join(Scopes, ","),
		OpenID:       "mock-open-id",
	}, nil
}

func (MockExchanger) Refresh(_ context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" || strings.HasPrefix(refreshToken, "bad-") {
		return nil, &TokenRefreshError{Err: fmt.Errorf("mock: refresh token rejected")}
	}
	return &TokenPair{
		AccessToken:  "mock-access-refreshed",
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(time.Hour),
		OpenID:       "mock-open-id",
	}, nil
}
