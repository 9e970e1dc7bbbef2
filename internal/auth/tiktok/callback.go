package tiktok

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliprally/cliprally/internal/db/models"
	"github.com/cliprally/cliprally/internal/upstream"
)

// HandleCallback completes the authorization flow: decodes the state blob,
// exchanges the code for a token pair, and saves or updates the
// LinkedAccount row.
func HandleCallback(database *gorm.DB, exchanger Exchanger, api upstream.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if errParam := q.Get("error"); errParam != "" {
			desc := q.Get("error_description")
			http.Error(w, fmt.Sprintf("Authorization denied: %s %s", errParam, desc), http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			// No code and no error from the platform is itself an error.
			http.Error(w, "Callback missing authorization code", http.StatusBadRequest)
			return
		}

		// Best-effort: a corrupt blob yields an empty verifier and the
		// exchange below fails on its own if PKCE was required.
		state := DecodeState(q.Get("state"))
		if state.Verifier == "" {
			log.Printf("⚠️ State blob did not decode, proceeding without verifier")
		}

		pair, err := exchanger.ExchangeCode(r.Context(), code, state.Verifier, redirectURLFor(r))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		externalID := pair.OpenID
		displayName := ""
		if info, err := api.FetchUserInfo(r.Context(), pair.AccessToken); err == nil {
			displayName = info.DisplayName
			if externalID == "" {
				externalID = info.OpenID
			}
		} else {
			log.Printf("⚠️ Could not fetch profile after exchange: %v", err)
		}
		if externalID == "" {
			http.Error(w, "Exchange returned no account identity", http.StatusBadGateway)
			return
		}

		userID := state.UserToken
		if userID == "" {
			userID = "local"
		}

		// Upsert by (user, external account) to preserve the UUID and the
		// primary flag across re-links.
		var existing models.LinkedAccount
		var accountID string
		var isPrimary bool
		var createdAt time.Time
		err = database.Where("user_id = ? AND external_id = ?", userID, externalID).First(&existing).Error
		if err == nil {
			accountID = existing.ID
			isPrimary = existing.IsPrimary
			// Save writes all fields; without this the original creation
			// timestamp would be zeroed on re-link.
			createdAt = existing.CreatedAt
		} else {
			accountID = uuid.New().String()
			// First linked account for the user becomes primary.
			var primaryCount int64
			database.Model(&models.LinkedAccount{}).
				Where("user_id = ? AND is_primary = ?", userID, true).
				Count(&primaryCount)
			isPrimary = primaryCount == 0
		}

		account := models.LinkedAccount{
			ID:           accountID,
			UserID:       userID,
			ExternalID:   externalID,
			DisplayName:  displayName,
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt,
			LastUsedAt:   time.Now(),
			IsPrimary:    isPrimary,
			Scopes:       normalizeScopes(pair.Scope),
			CreatedAt:    createdAt,
		}
		if err := database.Save(&account).Error; err != nil {
			http.Error(w, fmt.Sprintf("Failed to save account: %v", err), http.StatusInternalServerError)
			return
		}

		log.Printf("✅ Linked account %s for user %s (primary: %v)", externalID, userID, isPrimary)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Account Linked</title></head>
<body>
	<h1>✅ Account linked</h1>
	<p><strong>Account:</strong> %s</p>
	<p>You can close this window and return to the contest page.</p>
</body>
</html>`, displayName)
	}
}

// normalizeScopes stores the granted scope set space-separated regardless
// of whether the platform returned commas or spaces.
func normalizeScopes(scope string) string {
	fields := strings.FieldsFunc(scope, func(r rune) bool { return r == ',' || r == ' ' })
	return strings.Join(fields, " ")
}
