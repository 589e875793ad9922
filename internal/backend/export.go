package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/platedesk/internal/core"
	"github.com/JonMunkholm/platedesk/internal/logging"
)

// ExportFileName is the name the export endpoint's workbook is saved under.
const ExportFileName = "invoice_data.xlsx"

// SpreadsheetContentType is the MIME type of an xlsx workbook.
const SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Payload is the downloadable result of an export.
type Payload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportClient sends data sets to the export endpoint.
type ExportClient struct {
	cfg Config
	url string
}

// NewExportClient creates a client for cfg's download endpoint.
func NewExportClient(cfg Config) (*ExportClient, error) {
	cfg = cfg.withDefaults()
	u, err := endpoint(cfg.BaseURL, cfg.DownloadPath)
	if err != nil {
		return nil, err
	}
	return &ExportClient{cfg: cfg, url: u}, nil
}

// URL returns the export endpoint.
func (c *ExportClient) URL() string {
	return c.url
}

type exportRequest struct {
	Data core.DataSet `json:"data"`
}

// Export posts ds and returns the response body unchanged.
func (c *ExportClient) Export(ctx context.Context, ds core.DataSet) (Payload, error) {
	if len(ds) == 0 {
		return Payload{}, core.ErrNoData
	}

	body, err := json.Marshal(exportRequest{Data: ds})
	if err != nil {
		return Payload{}, fmt.Errorf("encode export body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Payload{}, fmt.Errorf("build export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.cfg.setCommonHeaders(req)

	start := time.Now()
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return Payload{}, &TransportError{Op: "download", Err: err}
	}
	defer resp.Body.Close()

	data, err := readBody(resp.Body, "download", responseLimit)
	if err != nil {
		return Payload{}, err
	}

	logging.FromContext(ctx).Info("export response",
		"status", resp.StatusCode,
		"rows", len(ds),
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !isSuccess(resp.StatusCode) {
		return Payload{}, &DownloadFailedError{Status: resp.StatusCode, Detail: errorField(data)}
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = SpreadsheetContentType
	}
	return Payload{
		FileName:    ExportFileName,
		ContentType: ct,
		Data:        data,
	}, nil
}
