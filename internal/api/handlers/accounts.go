package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/cliprally/cliprally/internal/auth/token"
	"github.com/cliprally/cliprally/internal/db/models"
	"github.com/cliprally/cliprally/internal/upstream"
)

type accountView struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
	IsPrimary   bool   `json:"is_primary"`
	Scopes      string `json:"scopes"`
	ExpiresAt   string `json:"expires_at"`
	AccessToken string `json:"access_token"` // masked
}

func viewOf(a models.LinkedAccount) accountView {
	return accountView{
		ID:          a.ID,
		UserID:      a.UserID,
		ExternalID:  a.ExternalID,
		DisplayName: a.DisplayName,
		IsPrimary:   a.IsPrimary,
		Scopes:      a.Scopes,
		ExpiresAt:   a.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z"),
		AccessToken: maskToken(a.AccessToken),
	}
}

// maskToken keeps the last 4 characters for identification.
func maskToken(tok string) string {
	if len(tok) <= 4 {
		return "****"
	}
	return "****" + tok[len(tok)-4:]
}

// ListAccountsHandler lists linked accounts with tokens masked.
func ListAccountsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var accounts []models.LinkedAccount
		if err := database.Order("created_at ASC").Find(&accounts).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to list accounts"})
			return
		}
		views := make([]accountView, 0, len(accounts))
		for _, a := range accounts {
			views = append(views, viewOf(a))
		}
		writeJSON(w, http.StatusOK, map[string]any{"accounts": views})
	}
}

// PromoteAccountHandler makes the account its user's primary. The swap is
// transactional so the single-primary invariant holds even on failure.
func PromoteAccountHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var account models.LinkedAccount
		if err := database.Where("id = ?", id).First(&account).Error; err != nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "account not found"})
			return
		}

		err := database.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.LinkedAccount{}).
				Where("user_id = ?", account.UserID).
				Update("is_primary", false).Error; err != nil {
				return err
			}
			return tx.Model(&models.LinkedAccount{}).
				Where("id = ?", id).
				Update("is_primary", true).Error
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to promote account"})
			return
		}

		log.Printf("⭐ Account %s is now primary for user %s", id, account.UserID)
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}

// RefreshAccountHandler forces a token refresh for one account.
func RefreshAccountHandler(invoker *token.Invoker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := invoker.GetAccount(chi.URLParam(r, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "account not found"})
			return
		}
		if err := invoker.Refresh(r.Context(), account); err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"expires_at": account.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
}

// DisconnectAccountHandler deletes a linked account. Stored media and
// submissions are kept; only the credential pairing goes away.
func DisconnectAccountHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		result := database.Where("id = ?", id).Delete(&models.LinkedAccount{})
		if result.Error != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to disconnect"})
			return
		}
		if result.RowsAffected == 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "account not found"})
			return
		}
		log.Printf("🔌 Disconnected account %s", id)
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}

// ListVideosHandler pages through the account's videos on the platform,
// with the token lifecycle handled by the invoker.
func ListVideosHandler(invoker *token.Invoker, api upstream.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := invoker.GetAccount(chi.URLParam(r, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "account not found"})
			return
		}

		cursor, _ := strconv.ParseInt(r.URL.Query().Get("cursor"), 10, 64)
		maxCount, _ := strconv.Atoi(r.URL.Query().Get("max_count"))

		var page *upstream.VideoPage
		err = invoker.Invoke(r.Context(), account, func(accessToken string) error {
			var apiErr error
			page, apiErr = api.ListVideos(r.Context(), accessToken, cursor, maxCount)
			return apiErr
		})
		if err != nil {
			writeJSON(w, statusForUpstream(err), map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func statusForUpstream(err error) int {
	switch {
	case errors.Is(err, upstream.ErrAuthExpired):
		return http.StatusUnauthorized
	case errors.Is(err, upstream.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, upstream.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
