package token

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cliprally/cliprally/internal/auth/tiktok"
	"github.com/cliprally/cliprally/internal/db/models"
	"github.com/cliprally/cliprally/internal/upstream"
)

// refreshWindow is the safety buffer before expiry: tokens inside it are
// refreshed before any dependent API call is issued.
const refreshWindow = 5 * time.Minute

// Invoker wraps authenticated platform calls with the credential
// lifecycle: proactive refresh near expiry, and a single reactive
// refresh-and-retry when a call fails with an auth-class signal. The retry
// ceiling is exactly one; it is never a loop.
//
// There is deliberately no per-account lock. Concurrent invocations may
// each trigger a refresh; every refresh persists a self-consistent pair
// and the last write wins.
type Invoker struct {
	db        *gorm.DB
	exchanger tiktok.Exchanger
}

// NewInvoker creates an invoker backed by the given exchanger.
func NewInvoker(db *gorm.DB, exchanger tiktok.Exchanger) *Invoker {
	return &Invoker{db: db, exchanger: exchanger}
}

// Invoke runs fn with a valid access token for the account. The account
// struct is updated in place when a refresh occurs so callers observe the
// persisted pair.
func (iv *Invoker) Invoke(ctx context.Context, account *models.LinkedAccount, fn func(accessToken string) error) error {
	if account.RefreshToken != "" && time.Now().Add(refreshWindow).After(account.ExpiresAt) {
		if err := iv.Refresh(ctx, account); err != nil {
			return err
		}
	}

	err := fn(account.AccessToken)
	if err == nil {
		return nil
	}
	if !isAuthClassError(err) || account.RefreshToken == "" {
		return err
	}

	log.Printf("🔄 Auth failure for account %s, refreshing once and retrying", account.ID)
	if rerr := iv.Refresh(ctx, account); rerr != nil {
		return rerr
	}
	return fn(account.AccessToken)
}

// Refresh exchanges the refresh token and persists the new pair in place.
func (iv *Invoker) Refresh(ctx context.Context, account *models.LinkedAccount) error {
	pair, err := iv.exchanger.Refresh(ctx, account.RefreshToken)
	if err != nil {
		// A rejected refresh token means the user must re-authorize;
		// nothing here can recover from that.
		return err
	}

	account.AccessToken = pair.AccessToken
	account.RefreshToken = pair.RefreshToken
	account.ExpiresAt = pair.ExpiresAt
	account.LastUsedAt = time.Now()
	if err := iv.db.Save(account).Error; err != nil {
		return err
	}
	log.Printf("✅ Refreshed token for account %s (expires: %s)", account.ID, pair.ExpiresAt.Format(time.RFC3339))
	return nil
}

// GetAccount loads a linked account by ID.
func (iv *Invoker) GetAccount(id string) (*models.LinkedAccount, error) {
	var account models.LinkedAccount
	if err := iv.db.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetPrimaryAccount returns the user's primary linked account, falling
// back to the most recently used one when no primary is set.
func (iv *Invoker) GetPrimaryAccount(userID string) (*models.LinkedAccount, error) {
	var account models.LinkedAccount
	err := iv.db.Where("user_id = ? AND is_primary = ?", userID, true).First(&account).Error
	if err == nil {
		return &account, nil
	}
	err = iv.db.Where("user_id = ?", userID).Order("last_used_at DESC").First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// isAuthClassError reports whether the failure indicates a rejected
// access token: the typed upstream sentinel, a 401 status, or an
// "invalid token" message.
func isAuthClassError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, upstream.ErrAuthExpired) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "401") || strings.Contains(msg, "invalid token")
}
