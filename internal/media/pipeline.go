package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliprally/cliprally/internal/db/models"
	"github.com/cliprally/cliprally/internal/logging"
)

// ObjectStore is the durable storage the pipeline persists media into.
type ObjectStore interface {
	// Put stores data under key and returns the public URL. It must never
	// overwrite an existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes an object; used only for compensating cleanup.
	Delete(ctx context.Context, key string) error
}

// Pipeline turns a user-supplied link into a durably stored artifact:
// resolve, fetch, validate, store. Each run is fully sequential within its
// request; any number of submissions may run concurrently.
type Pipeline struct {
	resolver   *Resolver
	downloader *Downloader
	store      ObjectStore
	db         *gorm.DB
}

// NewPipeline wires the ingestion pipeline.
func NewPipeline(resolver *Resolver, downloader *Downloader, store ObjectStore, db *gorm.DB) *Pipeline {
	return &Pipeline{resolver: resolver, downloader: downloader, store: store, db: db}
}

// Result is a successful ingestion.
type Result struct {
	SubmissionID string
	Key          string
	PublicURL    string
	Bytes        int64
}

// Ingest runs the pipeline for one submission. The returned OperationLog
// is always populated, on success and on failure, so callers can diagnose
// a run without server-side log access.
func (p *Pipeline) Ingest(ctx context.Context, userID, contestID, sourceURL string) (*Result, *OperationLog, error) {
	oplog := NewOperationLog()
	start := time.Now()

	mediaURL, err := p.resolveStage(ctx, sourceURL, oplog)
	if err != nil {
		p.recordSubmission(ctx, userID, contestID, sourceURL, "", nil, start, err)
		return nil, oplog, err
	}

	dl, err := p.downloader.Fetch(ctx, mediaURL, oplog)
	if err != nil {
		p.recordSubmission(ctx, userID, contestID, sourceURL, mediaURL, nil, start, err)
		return nil, oplog, err
	}

	if len(dl.Data) == 0 {
		err := fmt.Errorf("download produced an empty buffer")
		oplog.Errorf("validate", "%v", err)
		p.recordSubmission(ctx, userID, contestID, sourceURL, mediaURL, nil, start, err)
		return nil, oplog, err
	}
	oplog.Infof("validate", "buffer of %d bytes accepted", dl.Bytes)

	submissionID := uuid.New().String()
	key := mintKey(userID, sourceURL)
	publicURL, err := p.store.Put(ctx, key, dl.Data, dl.ContentType)
	if err != nil {
		storageErr := &StorageError{Key: key, Err: err}
		oplog.Errorf("store", "%v", storageErr)
		// Best-effort compensation: the key was minted, so make sure no
		// partial object survives. A cleanup failure never masks the
		// original error.
		if derr := p.store.Delete(ctx, key); derr != nil {
			oplog.Warnf("store", "cleanup delete of %s failed: %v", key, derr)
		} else {
			oplog.Infof("store", "cleanup delete of %s completed", key)
		}
		p.recordSubmission(ctx, userID, contestID, sourceURL, mediaURL, nil, start, storageErr)
		return nil, oplog, storageErr
	}
	oplog.Infof("store", "stored %s (%d bytes)", key, dl.Bytes)

	media := &models.StoredMedia{
		Key:          key,
		PublicURL:    publicURL,
		SubmissionID: submissionID,
		SizeBytes:    dl.Bytes,
	}
	if err := p.db.Create(media).Error; err != nil {
		storageErr := &StorageError{Key: key, Err: fmt.Errorf("persist media record: %w", err)}
		oplog.Errorf("store", "%v", storageErr)
		if derr := p.store.Delete(ctx, key); derr != nil {
			oplog.Warnf("store", "cleanup delete of %s failed: %v", key, derr)
		}
		p.recordSubmission(ctx, userID, contestID, sourceURL, mediaURL, nil, start, storageErr)
		return nil, oplog, storageErr
	}

	log.Printf("🎬 %sIngested %s as %s (%d bytes)", requestTag(ctx), sourceURL, key, dl.Bytes)
	result := &Result{SubmissionID: submissionID, Key: key, PublicURL: publicURL, Bytes: dl.Bytes}
	p.recordSubmission(ctx, userID, contestID, sourceURL, mediaURL, result, start, nil)
	return result, oplog, nil
}

// resolveStage classifies the source URL and, for content pages, extracts
// the actual media URL.
func (p *Pipeline) resolveStage(ctx context.Context, sourceURL string, oplog *OperationLog) (string, error) {
	res := Resolve(sourceURL)
	if res.Warning != "" {
		oplog.Warnf("resolve", "%s: %s", sourceURL, res.Warning)
	}
	switch {
	case res.IsDirectMediaURL:
		oplog.Infof("resolve", "direct media url: %s", sourceURL)
		return sourceURL, nil
	case res.IsPageURL:
		oplog.Infof("resolve", "content page url: %s", sourceURL)
		return p.resolver.ExtractActualURL(ctx, sourceURL, oplog)
	default:
		err := fmt.Errorf("unsupported source url: %s", sourceURL)
		oplog.Errorf("resolve", "%v", err)
		return "", err
	}
}

// requestTag renders the context's request id for server-side log lines,
// correlating them with the handler that started the run.
func requestTag(ctx context.Context) string {
	if id := logging.GetRequestID(ctx); id != "" {
		return "[" + id + "] "
	}
	return ""
}

// recordSubmission persists the attempt outcome. Submission rows exist for
// failures too; StoredMedia rows exist only for successes.
func (p *Pipeline) recordSubmission(ctx context.Context, userID, contestID, sourceURL, resolvedURL string, result *Result, start time.Time, runErr error) {
	sub := models.Submission{
		ID:          uuid.New().String(),
		UserID:      userID,
		ContestID:   contestID,
		SourceURL:   sourceURL,
		ResolvedURL: resolvedURL,
		DurationMS:  time.Since(start).Milliseconds(),
		CreatedAt:   time.Now().UnixMilli(),
	}
	if runErr != nil {
		sub.Outcome = ErrorCode(runErr)
		sub.Error = runErr.Error()
	} else {
		sub.Outcome = "success"
		sub.ID = result.SubmissionID
		sub.MediaKey = result.Key
		sub.PublicURL = result.PublicURL
		sub.SizeBytes = result.Bytes
	}
	if err := p.db.Create(&sub).Error; err != nil {
		log.Printf("⚠️ %sFailed to record submission for %s: %v", requestTag(ctx), sourceURL, err)
	}
}

var nonKeyChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// mintKey builds the object key: namespaced by owner and content id, with
// a random suffix so collisions are practically impossible. A collision at
// the store is therefore a bug signal, not a retry path.
func mintKey(userID, sourceURL string) string {
	owner := nonKeyChars.ReplaceAllString(userID, "-")
	if owner == "" {
		owner = "anonymous"
	}
	sum := sha1.Sum([]byte(sourceURL))
	contentID := hex.EncodeToString(sum[:6])
	return fmt.Sprintf("media/%s/%s/%s.mp4", owner, contentID, uuid.New().String())
}

// ErrorCode maps a pipeline error onto its stable, user-facing code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "success"
	case isType[*ExtractionError](err):
		return "extraction_failed"
	case isType[*SizeExceededError](err):
		return "size_exceeded"
	case isType[*TimeoutError](err):
		return "timeout"
	case isType[*StorageError](err):
		return "storage_failed"
	default:
		return "submission_failed"
	}
}

func isType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
