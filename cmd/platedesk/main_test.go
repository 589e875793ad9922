package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckPlate(t *testing.T) {
	out, err := run(t, "check-plate", "1234567ABC", "1234567abc")
	require.NoError(t, err)
	assert.Equal(t, "1234567ABC\tvalid\n1234567abc\tvalid\n", out)

	out, err = run(t, "check-plate", "1234567ABC", "123")
	require.Error(t, err)
	assert.Contains(t, out, "123\tinvalid")
	assert.Contains(t, err.Error(), "1 of 2 values invalid")
}

func processor(t *testing.T, workbook []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			io.WriteString(w, `{"data":[{"Plate ID":"1234567ABC","Amount":"10"}]}`)
		case "/download":
			w.Write(workbook)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractAndExport(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Plate ID"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "1234567ABC"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	f.Close()

	srv := processor(t, buf.Bytes())
	t.Setenv("BACKEND_URL", srv.URL)
	t.Setenv("LOG_LEVEL", "error")

	dir := t.TempDir()
	invoice := filepath.Join(dir, "invoice.pdf")
	require.NoError(t, os.WriteFile(invoice, []byte("%PDF-1.4\n"), 0o644))

	out, err := run(t, "extract", invoice)
	require.NoError(t, err)
	assert.Equal(t, `[{"Plate ID":"1234567ABC","Amount":"10"}]`, strings.TrimSpace(out))

	rowsPath := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(rowsPath, []byte(out), 0o644))
	xlsx := filepath.Join(dir, "out.xlsx")

	_, err = run(t, "export", rowsPath, "-o", xlsx)
	require.NoError(t, err)
	got, err := os.ReadFile(xlsx)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), got)
}

func TestExtract_RejectsTextFile(t *testing.T) {
	srv := processor(t, nil)
	t.Setenv("BACKEND_URL", srv.URL)
	t.Setenv("LOG_LEVEL", "error")

	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o644))

	_, err := run(t, "extract", notes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILE001")
}

func TestExtract_ReportsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":"Could not extract valid JSON data"}`)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("BACKEND_URL", srv.URL)
	t.Setenv("LOG_LEVEL", "error")

	invoice := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(invoice, []byte("%PDF-1.4\n"), 0o644))

	_, err := run(t, "extract", invoice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NET002")
	assert.Contains(t, err.Error(), "Could not extract valid JSON data")
}

func TestExport_InvalidRowNotSent(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()
	t.Setenv("BACKEND_URL", srv.URL)

	rowsPath := filepath.Join(t.TempDir(), "rows.json")
	require.NoError(t, os.WriteFile(rowsPath, []byte(`[{"Plate ID":"bad"}]`), 0o644))

	_, err := run(t, "export", rowsPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAL001")
	assert.Zero(t, hits)
}
