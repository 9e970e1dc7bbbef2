package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/cliprally/cliprally/internal/db/models"
	"github.com/cliprally/cliprally/internal/logging"
	"github.com/cliprally/cliprally/internal/media"
)

type submissionRequest struct {
	SourceURL string `json:"source_url"`
	ContestID string `json:"contest_id"`
	UserID    string `json:"user_id"`
}

// SubmitHandler runs the ingestion pipeline for one submitted link. The
// operation log is returned to the caller on success and on failure so a
// run can be diagnosed without server-side log access.
func SubmitHandler(pipeline *media.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
			return
		}
		if req.SourceURL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "source_url is required"})
			return
		}
		if req.UserID == "" {
			req.UserID = "local"
		}

		reqID := logging.GenerateRequestID()
		ctx := logging.WithRequestID(r.Context(), reqID)
		log.Printf("📥 [%s] Submission from %s: %s", reqID, req.UserID, req.SourceURL)

		result, oplog, err := pipeline.Ingest(ctx, req.UserID, req.ContestID, req.SourceURL)
		if err != nil {
			code := media.ErrorCode(err)
			log.Printf("❌ [%s] Submission failed (%s): %v", reqID, code, err)
			writeJSON(w, statusForCode(code), map[string]any{
				"error": err.Error(),
				"code":  code,
				"log":   oplog.Entries(),
			})
			return
		}

		log.Printf("✅ [%s] Stored %s (%d bytes)", reqID, result.Key, result.Bytes)
		writeJSON(w, http.StatusCreated, map[string]any{
			"submission_id": result.SubmissionID,
			"key":           result.Key,
			"public_url":    result.PublicURL,
			"size_bytes":    result.Bytes,
			"log":           oplog.Entries(),
		})
	}
}

// SubmissionStatsHandler returns aggregate counters over all recorded
// submission attempts.
func SubmissionStatsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var stats models.SubmissionStats
		if err := database.Model(&models.Submission{}).Count(&stats.Total).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to count submissions"})
			return
		}
		database.Model(&models.Submission{}).Where("outcome = ?", "success").Count(&stats.SuccessCount)
		stats.ErrorCount = stats.Total - stats.SuccessCount
		writeJSON(w, http.StatusOK, stats)
	}
}

// statusForCode maps pipeline error codes onto HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case "extraction_failed":
		return http.StatusUnprocessableEntity
	case "size_exceeded":
		return http.StatusRequestEntityTooLarge
	case "timeout":
		return http.StatusGatewayTimeout
	case "storage_failed":
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
