package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/platedesk/internal/core"
	"github.com/JonMunkholm/platedesk/internal/logging"
)

// ExtractionClient sends documents to the extraction endpoint.
type ExtractionClient struct {
	cfg Config
	url string
}

// NewExtractionClient creates a client for cfg's upload endpoint.
func NewExtractionClient(cfg Config) (*ExtractionClient, error) {
	cfg = cfg.withDefaults()
	u, err := endpoint(cfg.BaseURL, cfg.UploadPath)
	if err != nil {
		return nil, err
	}
	return &ExtractionClient{cfg: cfg, url: u}, nil
}

// URL returns the extraction endpoint.
func (c *ExtractionClient) URL() string {
	return c.url
}

// Preflight runs the local file checks with the client's size limit.
func (c *ExtractionClient) Preflight(f File) (FileInfo, error) {
	return Preflight(f, c.cfg.MaxFileSize)
}

// Extract uploads f and returns the rows the service found in it.
// A file failing Preflight is rejected without a request.
func (c *ExtractionClient) Extract(ctx context.Context, f File) (core.DataSet, error) {
	info, err := c.Preflight(f)
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx).With(
		"file", info.Name,
		"content_type", info.ContentType,
		"size", info.Size,
	)
	if info.Pages > 1 {
		logger.Warn("only the first page of a multi-page PDF is extracted", "pages", info.Pages)
	}

	body, contentType, err := multipartBody(info, f.Data)
	if err != nil {
		return nil, fmt.Errorf("build upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	c.cfg.setCommonHeaders(req)

	start := time.Now()
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	raw, err := readBody(resp.Body, "upload", responseLimit)
	if err != nil {
		return nil, err
	}

	logger.Info("extraction response",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !isSuccess(resp.StatusCode) {
		return nil, &UploadFailedError{Status: resp.StatusCode, Detail: errorField(raw)}
	}
	return parseExtraction(raw)
}

// parseExtraction reads {"data": [...]} or {"error": "..."}.
func parseExtraction(raw []byte) (core.DataSet, error) {
	if !gjson.ValidBytes(raw) {
		return nil, malformed("response is not JSON")
	}
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return nil, malformed("response is not a JSON object")
	}

	if msg := errorField(raw); msg != "" {
		return nil, &ExtractionFailedError{Message: msg}
	}

	data := res.Get("data")
	if !data.Exists() {
		return nil, malformed("response has no data field")
	}
	ds, err := core.DataSetFromResult(data)
	if err != nil {
		return nil, malformed("%v", err)
	}
	return ds, nil
}

// errorField returns the body's "error" string, or "" when absent, empty,
// or not JSON.
func errorField(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return ""
	}
	e := gjson.GetBytes(raw, "error")
	if !e.Exists() || e.Type == gjson.Null || e.Type == gjson.False {
		return ""
	}
	return e.String()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody builds a single-part form with the document under "file",
// tagged with its own content type.
func multipartBody(info FileInfo, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(info.Name)))
	h.Set("Content-Type", info.ContentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
