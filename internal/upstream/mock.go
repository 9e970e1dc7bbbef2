package upstream

import (
	"context"
	"fmt"
	"strings"
)

// MockAPI serves canned metadata when no platform credentials are
// configured. Tokens prefixed "bad-" behave as rejected.
type MockAPI struct{}

func (MockAPI) FetchUserInfo(_ context.Context, accessToken string) (*UserInfo, error) {
	if accessToken == "" || strings.HasPrefix(accessToken, "bad-") {
		return nil, fmt.Errorf("%w: mock rejection", ErrAuthExpired)
	}
	return &UserInfo{
		OpenID:      "mock-open-id",
		UnionID:     "mock-union-id",
		DisplayName: "Mock Creator",
		AvatarURL:   "https://example.com/avatar.jpg",
	}, nil
}

func (MockAPI) ListVideos(_ context.Context, accessToken string, cursor int64, maxCount int) (*VideoPage, error) {
	if accessToken == "" || strings.HasPrefix(accessToken, "bad-") {
		return nil, fmt.Errorf("%w: mock rejection", ErrAuthExpired)
	}
	if maxCount <= 0 || maxCount > 20 {
		maxCount = 20
	}
	videos := make([]Video, 0, maxCount)
	for i := 0; i < maxCount; i++ {
		id := cursor + int64(i)
		videos = append(videos, Video{
			ID:       fmt.Sprintf("mock-video-%d", id),
			Title:    fmt.Sprintf("Mock clip #%d", id),
			ShareURL: fmt.Sprintf("https://www.tiktok.com/@mock/video/%d", 7000000000000000000+id),
			Duration: 15,
		})
	}
	return &VideoPage{Videos: videos, Cursor: cursor + int64(maxCount), HasMore: cursor < 40}, nil
}
