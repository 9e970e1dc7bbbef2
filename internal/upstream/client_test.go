package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func withTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	old := BaseURL
	BaseURL = srv.URL
	t.Cleanup(func() { BaseURL = old })
	return NewClient()
}

func TestFetchUserInfo_Success(t *testing.T) {
	c := withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("unexpected auth header: %q", got)
		}
		w.Write([]byte(`{"data":{"user":{"open_id":"open-1","display_name":"Creator"}},"error":{"code":"ok"}}`))
	})

	info, err := c.FetchUserInfo(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("fetch user info: %v", err)
	}
	if info.OpenID != "open-1" || info.DisplayName != "Creator" {
		t.Fatalf("unexpected user info: %+v", info)
	}
}

func TestFetchUserInfo_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{name: "auth", code: "access_token_invalid", want: ErrAuthExpired},
		{name: "permission", code: "scope_not_authorized", want: ErrPermission},
		{name: "not found", code: "user_not_found", want: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"code": tt.code, "message": "nope"},
				})
			})
			_, err := c.FetchUserInfo(context.Background(), "tok")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFetchUserInfo_UnknownCodeIsAPIError(t *testing.T) {
	c := withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":"rate_limit_exceeded","message":"slow down"}}`))
	})
	_, err := c.FetchUserInfo(context.Background(), "tok")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "rate_limit_exceeded" {
		t.Fatalf("unexpected code: %s", apiErr.Code)
	}
}

func TestListVideos_CursorAndClamp(t *testing.T) {
	c := withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Cursor   int64 `json:"cursor"`
			MaxCount int   `json:"max_count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Cursor != 100 {
			t.Errorf("expected cursor 100, got %d", body.Cursor)
		}
		if body.MaxCount != 20 {
			t.Errorf("expected max_count clamped to 20, got %d", body.MaxCount)
		}
		w.Write([]byte(`{"data":{"videos":[{"id":"v1","share_url":"https://www.tiktok.com/@a/video/1"}],"cursor":120,"has_more":true},"error":{"code":"ok"}}`))
	})

	page, err := c.ListVideos(context.Background(), "tok", 100, 500)
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(page.Videos) != 1 || page.Cursor != 120 || !page.HasMore {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestDo_EmptyBodyNon200(t *testing.T) {
	c := withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.FetchUserInfo(context.Background(), "tok")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "502" {
		t.Fatalf("unexpected code: %s", apiErr.Code)
	}
}
