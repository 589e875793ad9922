package core

import (
	"errors"
	"fmt"
)

// Local file checks. These never reach the network.
var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrEmptyFile       = errors.New("empty file")
	ErrFileTooLarge    = errors.New("file too large")
	ErrNoFileSelected  = errors.New("no file selected")
)

// Backend round-trip failures. None of them mutate TableState.
var (
	ErrUploadFailed      = errors.New("upload failed")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrDownloadFailed    = errors.New("download failed")
	ErrMalformedResponse = errors.New("malformed response")
	ErrTransport         = errors.New("transport error")
	ErrResponseTooLarge  = errors.New("response too large")
)

// State access misuse.
var (
	ErrValidation     = errors.New("validation failed")
	ErrBadEditRequest = errors.New("unreadable edit request")
	ErrOutOfRange     = errors.New("row index out of range")
	ErrNotLoaded      = errors.New("no data loaded")
	ErrColumnMismatch = errors.New("column set mismatch")
	ErrNoData         = errors.New("no data to export")
)

// DetailedError is implemented by errors that carry text from the processing
// service. MapError appends the detail to the user message.
type DetailedError interface {
	error
	UserDetail() string
}

// OutOfRangeError reports an index outside the current data set.
type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("row index out of range: %d (rows: %d)", e.Index, e.Len)
}

// Is lets errors.Is(err, ErrOutOfRange) match.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
