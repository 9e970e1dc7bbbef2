package tiktok

import (
	"encoding/base64"
	"testing"
)

func TestStateRoundTrip_Modern(t *testing.T) {
	s := NewState("verifier-abc123", "user-token-9")
	got := DecodeState(EncodeState(s))
	if got.Verifier != s.Verifier {
		t.Fatalf("verifier mismatch: %q != %q", got.Verifier, s.Verifier)
	}
	if got.UserToken != s.UserToken {
		t.Fatalf("user token mismatch: %q != %q", got.UserToken, s.UserToken)
	}
	if got.IssuedAt != s.IssuedAt {
		t.Fatalf("issued at mismatch: %d != %d", got.IssuedAt, s.IssuedAt)
	}
}

func TestStateRoundTrip_LegacyEncoded(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte("old-verifier:old-user:1700000000"))
	got := DecodeState(raw)
	if got.Verifier != "old-verifier" || got.UserToken != "old-user" {
		t.Fatalf("legacy decode failed: %+v", got)
	}
	if got.IssuedAt != 1700000000 {
		t.Fatalf("legacy timestamp: %d", got.IssuedAt)
	}
}

func TestStateRoundTrip_LegacyBare(t *testing.T) {
	got := DecodeState("bare-verifier:bare-user")
	if got.Verifier != "bare-verifier" || got.UserToken != "bare-user" {
		t.Fatalf("bare legacy decode failed: %+v", got)
	}
}

func TestDecodeState_GarbageDegradesToEmpty(t *testing.T) {
	for _, raw := range []string{"", "%%%not-base64%%%", base64.RawURLEncoding.EncodeToString([]byte("{broken"))} {
		got := DecodeState(raw)
		if got.Verifier != "" {
			t.Fatalf("expected empty verifier for %q, got %q", raw, got.Verifier)
		}
	}
}

func TestOrderScopes(t *testing.T) {
	tests := []struct {
		name  string
		first string
		want  string
	}{
		{name: "default", first: "", want: Scopes[0]},
		{name: "reorder", first: "video.list", want: "video.list"},
		{name: "unknown ignored", first: "user.info.stats", want: Scopes[0]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrderScopes(tt.first)
			if got[0] != tt.want {
				t.Fatalf("expected %q first, got %q", tt.want, got[0])
			}
			if len(got) != len(Scopes) {
				t.Fatalf("reordering changed the grant set: %v", got)
			}
		})
	}
}
