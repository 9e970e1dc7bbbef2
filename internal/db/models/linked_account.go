package models

import "time"

// LinkedAccount stores OAuth identity and tokens pairing a platform user
// with an account on the third-party video platform.
type LinkedAccount struct {
	ID           string `gorm:"primaryKey"` // UUID
	UserID       string `gorm:"uniqueIndex:idx_user_external"`
	ExternalID   string `gorm:"uniqueIndex:idx_user_external"` // open_id on the video platform
	DisplayName  string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // every stored access token carries an expiry
	LastUsedAt   time.Time
	IsPrimary    bool   `gorm:"default:false"` // at most one per user
	Scopes       string // space-separated granted scope set
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
