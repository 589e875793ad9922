package backend

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/platedesk/internal/core"
)

// InvalidFileTypeError is returned before any request when the file's MIME
// type is not on the allow-list.
type InvalidFileTypeError struct {
	ContentType string
}

func (e *InvalidFileTypeError) Error() string {
	return fmt.Sprintf("invalid file type %q: accepted types are %s",
		e.ContentType, strings.Join(AllowedContentTypes, ", "))
}

func (e *InvalidFileTypeError) Unwrap() error { return core.ErrInvalidFileType }

// UploadFailedError reports a non-2xx answer from the extraction endpoint.
type UploadFailedError struct {
	Status int
	Detail string // "error" field of the body, if any
}

func (e *UploadFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("upload failed: status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("upload failed: status %d", e.Status)
}

func (e *UploadFailedError) Unwrap() error { return core.ErrUploadFailed }

// UserDetail implements core.DetailedError.
func (e *UploadFailedError) UserDetail() string {
	return statusDetail(e.Status, e.Detail)
}

// ExtractionFailedError reports an application-level error carried in a
// successful extraction response.
type ExtractionFailedError struct {
	Message string
}

func (e *ExtractionFailedError) Error() string {
	return "extraction failed: " + e.Message
}

func (e *ExtractionFailedError) Unwrap() error { return core.ErrExtractionFailed }

// UserDetail implements core.DetailedError.
func (e *ExtractionFailedError) UserDetail() string { return e.Message }

// DownloadFailedError reports a non-2xx answer from the export endpoint.
type DownloadFailedError struct {
	Status int
	Detail string
}

func (e *DownloadFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("download failed: status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("download failed: status %d", e.Status)
}

func (e *DownloadFailedError) Unwrap() error { return core.ErrDownloadFailed }

// UserDetail implements core.DetailedError.
func (e *DownloadFailedError) UserDetail() string {
	return statusDetail(e.Status, e.Detail)
}

func statusDetail(status int, detail string) string {
	if detail != "" {
		return fmt.Sprintf("status %d: %s", status, detail)
	}
	return fmt.Sprintf("status %d", status)
}

// ResponseTooLargeError reports a response body longer than the read limit.
type ResponseTooLargeError struct {
	Op    string
	Limit int64
}

func (e *ResponseTooLargeError) Error() string {
	return fmt.Sprintf("%s: response exceeds %d bytes", e.Op, e.Limit)
}

func (e *ResponseTooLargeError) Unwrap() error { return core.ErrResponseTooLarge }

// TransportError wraps a request that never produced a full response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
}

// Unwrap exposes both core.ErrTransport and the underlying cause, so
// errors.Is(err, context.DeadlineExceeded) still works.
func (e *TransportError) Unwrap() []error {
	return []error{core.ErrTransport, e.Err}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrMalformedResponse, fmt.Sprintf(format, args...))
}
