// Package backend provides the HTTP clients for the extraction and export
// endpoints.
//
// Both endpoints belong to an opaque processing service:
//
//   - POST /upload takes a multipart form with a "file" field and answers
//     {"data": [...]} or {"error": "..."}.
//   - POST /download takes {"data": [...]} and answers with the xlsx bytes.
//
// Local checks (file type, size) happen before any request is issued. Every
// failure is returned to the caller; nothing is retried.
package backend

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Defaults for Config fields left zero.
const (
	DefaultUploadPath   = "/upload"
	DefaultDownloadPath = "/download"
	DefaultTimeout      = 60 * time.Second
	DefaultMaxFileSize  = 16 << 20

	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 64 << 20
)

// responseLimit is the read limit in effect; tests lower it.
var responseLimit int64 = maxResponseSize

// Config describes how to reach the processing service.
type Config struct {
	BaseURL      string
	UploadPath   string
	DownloadPath string
	// APIKey is sent as X-API-Key when set.
	APIKey      string
	Timeout     time.Duration
	MaxFileSize int64
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

func (c Config) withDefaults() Config {
	if c.UploadPath == "" {
		c.UploadPath = DefaultUploadPath
	}
	if c.DownloadPath == "" {
		c.DownloadPath = DefaultDownloadPath
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}

func endpoint(base, path string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("backend base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid backend base URL %q", base)
	}
	return u.JoinPath(strings.TrimPrefix(path, "/")).String(), nil
}

func (c Config) setCommonHeaders(req *http.Request) {
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// readBody reads at most limit bytes of body. A longer body is an error
// rather than a silently shortened payload.
func readBody(body io.Reader, op string, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, &TransportError{Op: "read " + op + " response", Err: err}
	}
	if int64(len(data)) > limit {
		return nil, &ResponseTooLargeError{Op: op, Limit: limit}
	}
	return data, nil
}
