package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// MaxDownloadBytes is the hard ceiling for one media file. The whole
	// file is buffered in memory, which is acceptable only because of
	// this bound.
	MaxDownloadBytes = 100 * 1024 * 1024

	// downloadTimeout bounds the wall clock from the start of the
	// request, not just connection establishment.
	downloadTimeout = 3 * time.Minute

	chunkSize = 64 * 1024

	// progressEveryBytes is the cadence of progress entries in the
	// operation log.
	progressEveryBytes = 10 * 1024 * 1024
)

// DownloadResult is the buffered media plus transfer metadata.
type DownloadResult struct {
	Data        []byte
	ContentType string
	Bytes       int64
	Duration    time.Duration
}

// Downloader fetches media bytes under strict size and time bounds.
type Downloader struct {
	httpClient *http.Client
	limit      int64
	timeout    time.Duration
}

// NewDownloader creates a downloader with the default bounds.
func NewDownloader() *Downloader {
	return &Downloader{
		// No Timeout on the client itself: the per-fetch context
		// deadline covers the full transfer.
		httpClient: &http.Client{},
		limit:      MaxDownloadBytes,
		timeout:    downloadTimeout,
	}
}

// Fetch downloads resolvedURL into memory.
//
// A declared Content-Length above the ceiling aborts before any byte is
// buffered; a length exactly at the ceiling is accepted. While streaming,
// the running total is checked on every chunk and the transfer is torn
// down mid-stream if it exceeds the ceiling, even when no length was
// declared.
func (d *Downloader) Fetch(ctx context.Context, resolvedURL string, oplog *OperationLog) (*DownloadResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolvedURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, d.classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media fetch returned status %d", resp.StatusCode)
	}

	if resp.ContentLength > d.limit {
		oplog.Errorf("download", "declared length %d exceeds ceiling %d, aborting before transfer", resp.ContentLength, d.limit)
		return nil, &SizeExceededError{Limit: d.limit, Observed: resp.ContentLength}
	}
	if resp.ContentLength > 0 {
		oplog.Infof("download", "declared length %d bytes", resp.ContentLength)
	} else {
		oplog.Warnf("download", "no declared length, relying on streaming ceiling")
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}

	var total int64
	var nextProgress int64 = progressEveryBytes
	chunk := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > d.limit {
				// Tear the connection down mid-transfer; a response that
				// misreports or omits its size must not exhaust memory.
				oplog.Errorf("download", "streamed %d bytes past the %d ceiling, destroying connection", total, d.limit)
				return nil, &SizeExceededError{Limit: d.limit, Observed: total}
			}
			buf.Write(chunk[:n])
			if total >= nextProgress {
				oplog.Infof("download", "progress: %d bytes", total)
				nextProgress += progressEveryBytes
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, d.classifyTransportError(readErr)
		}
	}

	elapsed := time.Since(start)
	oplog.Infof("download", "fetched %d bytes in %s", total, elapsed.Round(time.Millisecond))
	return &DownloadResult{
		Data:        buf.Bytes(),
		ContentType: resp.Header.Get("Content-Type"),
		Bytes:       total,
		Duration:    elapsed,
	}, nil
}

func (d *Downloader) classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Stage: "download", Err: err}
	}
	return fmt.Errorf("media transfer failed: %w", err)
}
