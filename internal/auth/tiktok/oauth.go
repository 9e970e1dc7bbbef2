package tiktok

import (
	"golang.org/x/oauth2"

	"github.com/cliprally/cliprally/internal/config"
)

// Endpoint describes the video platform's OAuth endpoints. The token
// endpoint expects form-encoded credentials in the request body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://www.tiktok.com/v2/auth/authorize/",
	TokenURL:  "https://open.tiktokapis.com/v2/oauth/token/",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Scopes requested during authorization. The effective grant is the set,
// not the order; ordering only biases which permission the consent screen
// shows first.
var Scopes = []string{
	"user.info.basic",
	"video.list",
}

// GetOAuthConfig returns the OAuth2 config for the video platform.
func GetOAuthConfig(cfg config.TikTokConfig, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     Endpoint,
	}
}

// OrderScopes returns the scope set with the named scope moved to the
// front. Unknown names leave the default ordering untouched.
func OrderScopes(first string) []string {
	if first == "" {
		return Scopes
	}
	out := make([]string, 0, len(Scopes))
	found := false
	for _, s := range Scopes {
		if s == first {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		return Scopes
	}
	return append([]string{first}, out...)
}
