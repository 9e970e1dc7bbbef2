package tiktok

import (
	"fmt"
	"log"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/cliprally/cliprally/internal/config"
)

// redirectURLFor reconstructs the callback URL from the incoming request
// so the flow works behind proxies and on non-standard ports.
func redirectURLFor(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/auth/tiktok/callback", scheme, r.Host)
}

// HandleLogin begins the authorization flow: generates a PKCE verifier,
// packs it with the caller's user token into the opaque state blob, and
// redirects to the platform consent page.
//
// Query parameters:
//   - user_token:  opaque token identifying the platform user
//   - scope_first: bias which permission the consent screen shows first
func HandleLogin(cfg config.TikTokConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conf := GetOAuthConfig(cfg, redirectURLFor(r))
		if first := r.URL.Query().Get("scope_first"); first != "" {
			conf.Scopes = OrderScopes(first)
		}

		verifier := oauth2.GenerateVerifier()
		state := EncodeState(NewState(verifier, r.URL.Query().Get("user_token")))

		url := conf.AuthCodeURL(state,
			oauth2.AccessTypeOffline,
			oauth2.S256ChallengeOption(verifier),
		)
		log.Printf("🔗 Redirecting to consent page (scopes: %v)", conf.Scopes)
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}
