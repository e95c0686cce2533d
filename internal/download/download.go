package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"ghgrab/internal/logger"
)

// DefaultMemoryLimit is the memory ceiling applied when the caller supplies
// none: 100 MiB.
const DefaultMemoryLimit int64 = 104857600

// userAgent identifies ghgrab when fetching asset bytes.
const userAgent = "ghgrab/1.0"

// errTooLarge signals a mid-stream overflow of the in-memory attempt. It is
// recovered exactly once by restarting the download into a temp file; it
// never escapes this package.
var errTooLarge = errors.New("download exceeds memory limit")

// Downloader retrieves asset bytes with bounded memory usage.
type Downloader struct {
	client *http.Client
	// ShowProgress enables the stderr progress line. Off by default so
	// tests and library callers stay quiet.
	ShowProgress bool
}

// NewDownloader creates a downloader. No overall timeout is set on the HTTP
// client: releases can be large, and cancellation is the caller's business
// through the context.
func NewDownloader() *Downloader {
	return &Downloader{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Asset URLs redirect to a CDN; allow a sane chain.
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// Fetch downloads url into a Buffer, keeping memory use under memoryLimit.
//
// Strategy: when the declared content length fits the limit (or is absent),
// the body streams into memory; if the actual bytes overflow the limit
// mid-stream the attempt is abandoned and the download restarts from the
// beginning into a temporary file. That restart happens at most once; any
// failure of the second attempt is terminal. A declared length above the
// limit goes to a temporary file from the first byte. Transport
// interruptions fail the whole download; there is no partial-range retry.
//
// Cancelling the context aborts the transport read; any temporary file
// created so far is removed before Fetch returns.
func (d *Downloader) Fetch(ctx context.Context, url string, memoryLimit int64) (*Buffer, error) {
	if memoryLimit <= 0 {
		memoryLimit = DefaultMemoryLimit
	}

	resp, err := d.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	declared := resp.ContentLength
	if declared > memoryLimit {
		logger.Debug("[DEBUG] Declared size %d exceeds memory limit %d, streaming to temp file\n", declared, memoryLimit)
		return d.streamToFile(resp.Body, declared)
	}

	buf, err := d.streamToMemory(resp.Body, declared, memoryLimit)
	if err == nil {
		return buf, nil
	}
	if !errors.Is(err, errTooLarge) {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}

	// The declared length was wrong or absent and the body outgrew the
	// limit. Drop the in-memory attempt and redo the request straight to
	// disk. One restart only: the disk path cannot overflow, so any error
	// from here on is terminal.
	logger.Debug("[DEBUG] Download outgrew memory limit %d, restarting to temp file\n", memoryLimit)
	resp.Body.Close()

	retry, err := d.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("restart download %s: %w", url, err)
	}
	defer retry.Body.Close()

	fileBuf, err := d.streamToFile(retry.Body, retry.ContentLength)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	return fileBuf, nil
}

// get issues the GET request and verifies the status.
func (d *Downloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected HTTP status %d", url, resp.StatusCode)
	}
	return resp, nil
}

// streamToMemory reads the body into memory, failing with errTooLarge as
// soon as the limit is crossed.
func (d *Downloader) streamToMemory(body io.Reader, declared, limit int64) (*Buffer, error) {
	progress := d.newProgress(declared)
	defer progress.finish()

	var buf bytes.Buffer
	if declared > 0 {
		buf.Grow(int(declared))
	}

	// Reading limit+1 bytes proves the stream is over budget without
	// buffering more than one extra byte's worth of chunk.
	n, err := io.Copy(io.MultiWriter(&buf, progress), io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if n > limit {
		return nil, errTooLarge
	}
	return NewMemoryBuffer(buf.Bytes()), nil
}

// streamToFile reads the body into a fresh temporary file. The file is
// removed on every error path, including context cancellation surfacing as a
// read error.
func (d *Downloader) streamToFile(body io.Reader, declared int64) (*Buffer, error) {
	tmpFile, err := os.CreateTemp("", "ghgrab-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			tmpFile.Close()
			os.Remove(tmpFile.Name())
		}
	}()

	progress := d.newProgress(declared)
	defer progress.finish()

	written, err := io.Copy(io.MultiWriter(tmpFile, progress), body)
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	cleanupNeeded = false
	return newFileBuffer(tmpFile, written), nil
}
