package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/cliprally/cliprally/internal/db"
)

// GetAPIKeyHandler returns the configured API key.
func GetAPIKeyHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"api_key": db.GetAPIKey(database)})
	}
}

// RegenerateAPIKeyHandler rotates the API key. Existing clients are cut
// off immediately.
func RegenerateAPIKeyHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"api_key": db.RegenerateAPIKey(database)})
	}
}
