package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/platedesk/internal/backend"
	"github.com/JonMunkholm/platedesk/internal/config"
	"github.com/JonMunkholm/platedesk/internal/core"
	"github.com/JonMunkholm/platedesk/internal/desk"
)

const extractBody = `{"data":[{"Plate ID":"1234567ABC","Amount":"10"},{"Plate ID":"7654321XYZ","Amount":"20"}]}`

var xlsxBytes = []byte("PK\x03\x04 pretend workbook")

// fakeProcessor stands in for the extraction/export service.
type fakeProcessor struct {
	extractStatus int
	extractBody   string
	exported      []byte
}

func (f *fakeProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/upload":
		if f.extractStatus != 0 {
			w.WriteHeader(f.extractStatus)
		}
		io.WriteString(w, f.extractBody)
	case "/download":
		f.exported, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", backend.SpreadsheetContentType)
		w.Write(xlsxBytes)
	default:
		http.NotFound(w, r)
	}
}

func testConfig(backendURL string) *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{RequestTimeout: 5 * time.Second, ShutdownTimeout: time.Second},
		Backend: config.BackendConfig{URL: backendURL, Timeout: 5 * time.Second},
		Upload:  config.UploadConfig{MaxFileSize: 1 << 20, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Edit:    config.EditConfig{MissingFields: "blank"},
		Security: config.SecurityConfig{
			EnableCSP: true,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func newTestServer(t *testing.T) (*Server, *fakeProcessor) {
	t.Helper()
	proc := &fakeProcessor{extractBody: extractBody}
	backendSrv := httptest.NewServer(proc)
	t.Cleanup(backendSrv.Close)

	cfg := testConfig(backendSrv.URL)
	bc := backend.Config{BaseURL: backendSrv.URL, MaxFileSize: cfg.Upload.MaxFileSize}
	ex, err := backend.NewExtractionClient(bc)
	require.NoError(t, err)
	exp, err := backend.NewExportClient(bc)
	require.NoError(t, err)

	d := desk.New(ex, exp, desk.Options{})
	s := NewServer(d, cfg)
	t.Cleanup(func() {
		for _, rl := range s.limiters {
			rl.stop()
		}
	})
	return s, proc
}

func uploadRequest(t *testing.T, name, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	part.Write(data)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func extract(t *testing.T, s *Server) {
	t.Helper()
	rec := serve(s, uploadRequest(t, "invoice.pdf", "application/pdf", []byte("%PDF-1.4\n")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/extract"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjsonString(t, rec.Body.Bytes(), "status"))
}

func TestExtract_RendersTable(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, uploadRequest(t, "invoice.pdf", "application/pdf", []byte("%PDF-1.4\n")))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<th>Plate ID</th>")
	assert.Contains(t, body, "7654321XYZ")
	assert.Contains(t, body, "Extracted 2 rows")
}

func TestExtract_InvalidType(t *testing.T) {
	s, _ := newTestServer(t)

	req := uploadRequest(t, "notes.txt", "text/plain", []byte("hello"))
	req.Header.Set("Accept", "application/json")
	rec := serve(s, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE001", resp.Code)
	assert.Equal(t, "Please upload a PDF or image file (JPG/PNG)", resp.Message)
}

func TestExtract_NoFile(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE004")
	assert.Contains(t, rec.Body.String(), `role="alert"`)
}

func TestExtract_BackendFailureKeepsTable(t *testing.T) {
	s, proc := newTestServer(t)
	extract(t, s)

	proc.extractStatus = http.StatusInternalServerError
	proc.extractBody = `{"error":"boom"}`
	rec := serve(s, uploadRequest(t, "other.pdf", "application/pdf", []byte("%PDF-1.4\n")))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "NET001")
	assert.Contains(t, rec.Body.String(), "7654321XYZ", "previous rows stay visible")
}

func TestExtract_ServiceErrorShownToUser(t *testing.T) {
	s, proc := newTestServer(t)
	proc.extractBody = `{"error":"Could not extract valid JSON data"}`

	rec := serve(s, uploadRequest(t, "invoice.pdf", "application/pdf", []byte("%PDF-1.4\n")))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not extract valid JSON data")

	req := uploadRequest(t, "invoice.pdf", "application/pdf", []byte("%PDF-1.4\n"))
	req.Header.Set("Accept", "application/json")
	rec = serve(s, req)
	assert.Equal(t, "NET002", gjsonString(t, rec.Body.Bytes(), "code"))
	assert.Contains(t, gjsonString(t, rec.Body.Bytes(), "message"), "Could not extract valid JSON data")
}

func TestExtract_UploadStatusShownToUser(t *testing.T) {
	s, proc := newTestServer(t)
	proc.extractStatus = http.StatusInternalServerError
	proc.extractBody = `{"error":"boom"}`

	req := uploadRequest(t, "invoice.pdf", "application/pdf", []byte("%PDF-1.4\n"))
	req.Header.Set("Accept", "application/json")
	rec := serve(s, req)

	assert.Equal(t, "NET001", gjsonString(t, rec.Body.Bytes(), "code"))
	assert.Contains(t, gjsonString(t, rec.Body.Bytes(), "message"), "status 500")
	assert.Contains(t, gjsonString(t, rec.Body.Bytes(), "message"), "boom")
}

func TestEditAndSaveRow(t *testing.T) {
	s, _ := newTestServer(t)
	extract(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/rows/1/edit", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/rows/1"`)

	form := url.Values{"Plate ID": {"1111111AAA"}, "Amount": {"25"}}
	req := httptest.NewRequest(http.MethodPost, "/rows/1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1111111AAA")
	assert.Contains(t, rec.Body.String(), "Row 2 saved")
	assert.NotContains(t, rec.Body.String(), `action="/rows/1"`)
}

func TestSaveRow_InvalidPlate(t *testing.T) {
	s, _ := newTestServer(t)
	extract(t, s)

	form := url.Values{"Plate ID": {"ABC"}, "Amount": {"25"}}
	req := httptest.NewRequest(http.MethodPost, "/rows/0", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL001", gjsonString(t, rec.Body.Bytes(), "code"))

	data := s.desk.Data()
	assert.Equal(t, "1234567ABC", data.Current[0].Value("Plate ID"))
}

func TestSaveRow_JSONBody(t *testing.T) {
	s, _ := newTestServer(t)
	extract(t, s)

	req := httptest.NewRequest(http.MethodPost, "/rows/0", strings.NewReader(`{"Plate ID":"2222222BBB","Amount":"11"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2222222BBB", gjsonString(t, rec.Body.Bytes(), "data.0.Plate ID"))
	assert.Equal(t, "1234567ABC", gjsonString(t, rec.Body.Bytes(), "original.0.Plate ID"))
}

func TestSaveRow_UnreadableJSON(t *testing.T) {
	s, _ := newTestServer(t)
	extract(t, s)

	req := httptest.NewRequest(http.MethodPost, "/rows/0", strings.NewReader(`{"Amount":10}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL002", gjsonString(t, rec.Body.Bytes(), "code"))
	assert.NotContains(t, rec.Body.String(), "Plate ID format")
	assert.Equal(t, "1234567ABC", s.desk.Data().Current[0].Value("Plate ID"))
}

func TestEditRow_BadIndex(t *testing.T) {
	s, _ := newTestServer(t)
	extract(t, s)

	for _, path := range []string{"/rows/9/edit", "/rows/x/edit"} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "STATE001", path)
	}
}

func TestCancelEdit(t *testing.T) {
	s, _ := newTestServer(t)
	extract(t, s)

	serve(s, httptest.NewRequest(http.MethodGet, "/rows/0/edit", nil))
	rec := serve(s, httptest.NewRequest(http.MethodPost, "/rows/cancel", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `class="edit"`)
}

func TestReset(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/reset", nil))
	assert.Equal(t, http.StatusConflict, rec.Code, "reset before extract")

	extract(t, s)
	form := url.Values{"Plate ID": {"1111111AAA"}, "Amount": {"1"}}
	req := httptest.NewRequest(http.MethodPost, "/rows/0", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	serve(s, req)

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/reset", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.desk.Data().Current.Equal(s.desk.Data().Original))
}

func TestExport_Attachment(t *testing.T) {
	s, proc := newTestServer(t)
	extract(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxBytes, rec.Body.Bytes())
	assert.Equal(t, `attachment; filename="invoice_data.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, backend.SpreadsheetContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, string(proc.exported), `"Plate ID":"1234567ABC"`)
}

func TestExport_BeforeExtract(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/export", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(s, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "STATE002", gjsonString(t, rec.Body.Bytes(), "code"))
}

func TestAPIData(t *testing.T) {
	s, _ := newTestServer(t)
	extract(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/data", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7654321XYZ", gjsonString(t, rec.Body.Bytes(), "data.1.Plate ID"))
	assert.NotEmpty(t, gjsonString(t, rec.Body.Bytes(), "load_id"))
}

func TestAPIData_RequiresKey(t *testing.T) {
	s, _ := newTestServer(t)
	s.cfg.Security.RequireAPIKey = true
	s.cfg.Security.APIKeys = []string{"secret"}

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/data", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTMXErrorPartial(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<div class="notice error"`))
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"), "limits are per IP")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{&backend.InvalidFileTypeError{ContentType: "text/plain"}, http.StatusUnsupportedMediaType},
		{&core.ValidationError{Field: core.PlateIDColumn}, http.StatusBadRequest},
		{&core.OutOfRangeError{Index: 3, Len: 1}, http.StatusNotFound},
		{core.ErrTooManyRequests, http.StatusTooManyRequests},
		{&backend.TransportError{Op: "upload", Err: io.ErrUnexpectedEOF}, http.StatusBadGateway},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}
