package backend

import (
	"bytes"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/JonMunkholm/platedesk/internal/core"
)

// AllowedContentTypes are the document types the extraction endpoint accepts.
var AllowedContentTypes = []string{"application/pdf", "image/jpeg", "image/png"}

// File is a document selected for extraction.
type File struct {
	Name string
	// ContentType is the declared MIME type. When empty it is sniffed from Data.
	ContentType string
	Data        []byte
}

// FileInfo is what Preflight learned about a File.
type FileInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	// Sniffed is set when ContentType came from the file's bytes.
	Sniffed bool `json:"sniffed"`
	// Pages is the PDF page count, 0 for images or unreadable PDFs.
	Pages int `json:"pages,omitempty"`
}

// ReadFile loads a document from disk. The content type is taken from the
// extension when it is known, otherwise left for Preflight to sniff.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:        data,
	}, nil
}

// Preflight runs the local checks that precede an upload.
func Preflight(f File, maxSize int64) (FileInfo, error) {
	info := FileInfo{Name: f.Name, Size: int64(len(f.Data))}

	if len(f.Data) == 0 {
		return info, core.ErrEmptyFile
	}
	if maxSize > 0 && info.Size > maxSize {
		return info, fmt.Errorf("%w: %d bytes exceeds limit of %d", core.ErrFileTooLarge, info.Size, maxSize)
	}

	ct := mediaType(f.ContentType)
	if ct == "" {
		ct = mediaType(mimetype.Detect(f.Data).String())
		info.Sniffed = true
	}
	info.ContentType = ct

	if !slices.Contains(AllowedContentTypes, ct) {
		return info, &InvalidFileTypeError{ContentType: ct}
	}

	if ct == "application/pdf" {
		if n, err := pdfPageCount(f.Data); err == nil {
			info.Pages = n
		}
	}
	if info.Name == "" {
		info.Name = "document" + extensionFor(ct)
	}
	return info, nil
}

// mediaType strips parameters and normalizes case: "Image/PNG; x=y" -> "image/png".
func mediaType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return strings.ToLower(ct)
}

func extensionFor(ct string) string {
	if m := mimetype.Lookup(ct); m != nil {
		return m.Extension()
	}
	return ""
}

// pdfPageCount opens the document just far enough to count its pages.
// ledongthuc/pdf panics on some malformed inputs.
func pdfPageCount(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
