package models

import "time"

// StoredMedia is a durable, platform-owned copy of a video file created
// after successful ingestion. A row exists if and only if the ingestion
// pipeline completed; orphaned objects are deleted by compensating cleanup.
type StoredMedia struct {
	Key          string `gorm:"primaryKey"` // object key, includes a random suffix
	PublicURL    string
	SubmissionID string `gorm:"index"`
	SizeBytes    int64
	CreatedAt    time.Time
}
