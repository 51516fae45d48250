package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"ymusic-dl/internal/errs"
)

// Client wraps HTTP operations with catalog-specific configuration.
//
// Client provides:
//   - OAuth authorization header on every request
//   - Timeout handling
//   - JSON decoding of API responses
//   - Streaming file download with a hard size ceiling
//
// Example usage:
//
//	client := NewClient(token)
//
//	// Fetch a JSON API response
//	var resp artistResponse
//	err := client.GetJSON(ctx, "https://api.music.yandex.net/artists/123", &resp)
//
//	// Download an MP3 with progress
//	err = client.DownloadFile(ctx, mp3URL, "/path/to/file.mp3", DownloadOptions{
//	    MaxBytes: 100 << 20,
//	    OnProgress: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	})
type Client struct {
	httpClient *http.Client
	token      string
	userAgent  string
}

// NewClient creates a new HTTP client authenticated with the given OAuth
// token. An empty token disables the Authorization header.
//
// The client is configured with:
//   - 60 second timeout
//   - "ymusic-dl" User-Agent header
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		token:     token,
		userAgent: "ymusic-dl",
	}
}

// WithTimeout returns a copy of the client using the given request timeout.
// Useful for short-lived probe requests where the default is too generous.
func (c *Client) WithTimeout(d time.Duration) *Client {
	clone := *c
	clone.httpClient = &http.Client{Timeout: d}
	return &clone
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	// Parameters are (bytesWritten, totalExpected).
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "OAuth "+c.token)
	}
	return req, nil
}

// Get performs a GET request and returns the response body as bytes.
//
// The request includes the configured User-Agent and Authorization headers.
// Transport failures are reported as *errs.NetworkError; a 404 becomes a
// *errs.NotFoundError so callers can treat absence as a normal outcome.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &errs.NotFoundError{Resource: "url", ID: url}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &errs.NetworkError{Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.NetworkError{Err: err}
	}
	return body, nil
}

// GetJSON performs a GET request and decodes the JSON response body into v.
//
// Example:
//
//	var resp trackListResponse
//	err := client.GetJSON(ctx, url, &resp)
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

// DownloadOptions controls a streaming file download.
type DownloadOptions struct {
	// MaxBytes aborts the download once more than this many bytes have been
	// received. Zero means no limit. An over-limit download fails with
	// errs.ErrFileTooLarge and leaves no file behind.
	MaxBytes int64

	// ChunkSize is the copy buffer size. Zero uses a 8 KiB default.
	ChunkSize int

	// OnProgress, if non-nil, is called after each chunk with
	// (bytesWritten, totalExpected). Total is -1 when the server does not
	// report a Content-Length.
	OnProgress func(written, total int64)
}

// DownloadFile streams a URL to destPath.
//
// The body is written to a temporary file next to the destination and
// renamed into place only after the full body has been received, so a
// cancelled or failed download never leaves a truncated file at destPath.
//
// If the Content-Length header already exceeds opts.MaxBytes the request
// body is not read at all. Servers that lie about (or omit) Content-Length
// are still caught by a running byte count during the copy.
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, opts DownloadOptions) error {
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errs.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &errs.NetworkError{Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)}
	}
	if opts.MaxBytes > 0 && resp.ContentLength > opts.MaxBytes {
		return errs.ErrFileTooLarge
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return &errs.FileSystemError{Path: filepath.Dir(destPath), Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return &errs.FileSystemError{Path: destPath, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := c.copyBody(ctx, tmp, resp, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return &errs.FileSystemError{Path: tmpPath, Err: err}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return &errs.FileSystemError{Path: destPath, Err: err}
	}
	return nil
}

func (c *Client) copyBody(ctx context.Context, dst io.Writer, resp *http.Response, opts DownloadOptions) error {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 8192
	}
	buf := make([]byte, chunkSize)

	var written int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if opts.MaxBytes > 0 && written+int64(n) > opts.MaxBytes {
				return errs.ErrFileTooLarge
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return &errs.FileSystemError{Path: "", Err: werr}
			}
			written += int64(n)
			if opts.OnProgress != nil {
				opts.OnProgress(written, resp.ContentLength)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &errs.NetworkError{Err: err}
		}
	}
}
