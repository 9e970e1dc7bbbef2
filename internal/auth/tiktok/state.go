package tiktok

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// AuthState is the payload carried opaquely in the redirect's state
// parameter. Nothing is persisted server-side: the redirect round-trip is
// the only storage. The blob is deliberately unsigned; a forged state only
// yields a verifier the token endpoint will reject.
type AuthState struct {
	Verifier  string `json:"v"`
	UserToken string `json:"u,omitempty"`
	IssuedAt  int64  `json:"t"`
}

// EncodeState packs the state into base64url(JSON).
func EncodeState(s AuthState) string {
	raw, _ := json.Marshal(s)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeState unpacks a state blob, tolerating both the current JSON form
// and the legacy colon-delimited "verifier:userToken:issuedAt" form.
// Decode failure degrades to a zero state instead of aborting: the token
// exchange simply fails on its own if the verifier was required.
func DecodeState(raw string) AuthState {
	if raw == "" {
		return AuthState{}
	}

	if decoded, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
		var s AuthState
		if json.Unmarshal(decoded, &s) == nil && s.Verifier != "" {
			return s
		}
		// Legacy blobs were base64 of "verifier:userToken:issuedAt".
		if s := decodeLegacy(string(decoded)); s.Verifier != "" {
			return s
		}
	}

	// Oldest clients sent the colon form unencoded.
	return decodeLegacy(raw)
}

func decodeLegacy(raw string) AuthState {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return AuthState{}
	}
	s := AuthState{Verifier: parts[0], UserToken: parts[1]}
	if len(parts) > 2 {
		s.IssuedAt, _ = strconv.ParseInt(parts[2], 10, 64)
	}
	return s
}

// NewState creates a state carrying a fresh PKCE verifier.
func NewState(verifier, userToken string) AuthState {
	return AuthState{
		Verifier:  verifier,
		UserToken: userToken,
		IssuedAt:  time.Now().Unix(),
	}
}
