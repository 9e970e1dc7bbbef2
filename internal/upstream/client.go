package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// BaseURL is the platform's open API root.
var BaseURL = "https://open.tiktokapis.com/v2"

const (
	// UserAgent identifies the backend to the platform API.
	UserAgent = "cliprally/1.0"

	userInfoFields  = "open_id,union_id,avatar_url,display_name"
	videoListFields = "id,title,cover_image_url,share_url,duration,create_time"
)

// Client handles bearer-authenticated calls to the platform's metadata and
// listing endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new platform API client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// API is the surface consumed by handlers and the token invoker. The mock
// implementation stands in when no platform credentials are configured.
type API interface {
	FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
	ListVideos(ctx context.Context, accessToken string, cursor int64, maxCount int) (*VideoPage, error)
}

// UserInfo is the platform account behind an access token.
type UserInfo struct {
	OpenID      string `json:"open_id"`
	UnionID     string `json:"union_id"`
	AvatarURL   string `json:"avatar_url"`
	DisplayName string `json:"display_name"`
}

// Video is one item from the account's video listing.
type Video struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CoverImageURL string `json:"cover_image_url"`
	ShareURL      string `json:"share_url"`
	Duration      int    `json:"duration"`
	CreateTime    int64  `json:"create_time"`
}

// VideoPage is one page of the cursor-paginated listing.
type VideoPage struct {
	Videos  []Video `json:"videos"`
	Cursor  int64   `json:"cursor"`
	HasMore bool    `json:"has_more"`
}

// FetchUserInfo retrieves the profile of the account behind the token.
func (c *Client) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	u := fmt.Sprintf("%s/user/info/?fields=%s", BaseURL, url.QueryEscape(userInfoFields))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data struct {
			User UserInfo `json:"user"`
		} `json:"data"`
		Error errorEnvelope `json:"error"`
	}
	if err := c.do(req, accessToken, &payload); err != nil {
		return nil, err
	}
	if err := payload.Error.classify(); err != nil {
		return nil, err
	}
	return &payload.Data.User, nil
}

// ListVideos fetches one page of the account's videos. maxCount is capped
// at the platform limit of 20.
func (c *Client) ListVideos(ctx context.Context, accessToken string, cursor int64, maxCount int) (*VideoPage, error) {
	if maxCount <= 0 || maxCount > 20 {
		maxCount = 20
	}
	body, _ := json.Marshal(map[string]any{
		"cursor":    cursor,
		"max_count": maxCount,
	})

	u := fmt.Sprintf("%s/video/list/?fields=%s", BaseURL, url.QueryEscape(videoListFields))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var payload struct {
		Data  VideoPage     `json:"data"`
		Error errorEnvelope `json:"error"`
	}
	if err := c.do(req, accessToken, &payload); err != nil {
		return nil, err
	}
	if err := payload.Error.classify(); err != nil {
		return nil, err
	}
	return &payload.Data, nil
}

// do executes the request and decodes the response into out. The platform
// wraps failures in a JSON error envelope even on non-2xx statuses, so the
// body is decoded either way; an undecodable non-2xx body becomes an
// APIError from the status line alone.
func (c *Client) do(req *http.Request, accessToken string, out any) error {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if len(raw) == 0 {
		if resp.StatusCode != http.StatusOK {
			return &APIError{Code: strconv.Itoa(resp.StatusCode), Message: http.StatusText(resp.StatusCode)}
		}
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &APIError{Code: strconv.Itoa(resp.StatusCode), Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
