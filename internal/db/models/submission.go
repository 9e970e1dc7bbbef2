package models

// Submission records one contest entry and the outcome of its ingestion run.
type Submission struct {
	ID          string `gorm:"primaryKey" json:"id"` // UUID
	UserID      string `gorm:"index" json:"user_id"`
	ContestID   string `gorm:"index" json:"contest_id"`
	SourceURL   string `json:"source_url"`
	ResolvedURL string `json:"resolved_url,omitempty"`
	MediaKey    string `json:"media_key,omitempty"`
	PublicURL   string `json:"public_url,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
	Outcome     string `gorm:"index" json:"outcome"` // "success" or the error code
	Error       string `json:"error,omitempty"`
	CreatedAt   int64  `gorm:"index" json:"created_at"` // unix millis
}

// SubmissionStats holds aggregated counters for submissions.
type SubmissionStats struct {
	Total        int64 `json:"total"`
	SuccessCount int64 `json:"success_count"`
	ErrorCount   int64 `json:"error_count"`
}
