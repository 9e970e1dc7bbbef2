package media

import "fmt"

// ExtractionError means no resolvable media URL was found on a content
// page. Fatal; carries the page URL for diagnosis.
type ExtractionError struct {
	PageURL string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no media url could be extracted from page: %s", e.PageURL)
}

// SizeExceededError marks a resource-bound violation of the download
// ceiling. Fatal, never auto-retried.
type SizeExceededError struct {
	Limit    int64
	Observed int64 // declared Content-Length, or running total when undeclared
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("media size %d exceeds the %d byte ceiling", e.Observed, e.Limit)
}

// TimeoutError marks a stage that ran past its wall-clock bound. Fatal,
// never auto-retried.
type TimeoutError struct {
	Stage string
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Stage, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// StorageError marks a durable-storage failure. Fatal to the submission;
// a failed compensating delete only ever downgrades to a warning and
// never masks the original error.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure for key %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
