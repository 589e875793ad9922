package core

// error_messages.go maps errors to user-friendly messages with codes for
// support reference. When users see a notice they can quote the code.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Invalid file type: only PDF, JPEG and PNG are accepted
//	FILE002 - Empty file: the selected file has no content
//	FILE003 - File too large: the file exceeds the upload limit
//	FILE004 - No file: extract was requested before a file was selected
//
// # Network Errors (NET001-NET099)
//
//	NET001 - Upload failed: the extraction endpoint returned a non-2xx status
//	NET002 - Extraction failed: the extraction endpoint reported an error
//	NET003 - Download failed: the export endpoint returned a non-2xx status
//	NET004 - Malformed response: the extraction response was not understood
//	NET005 - Backend unreachable: the request never completed
//	NET006 - Request timeout: the backend did not answer in time
//	NET007 - Busy: another extract or export is still running
//	NET008 - Response too large: a backend answer exceeded the read limit
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid Plate ID: 7 numbers followed by 3 letters expected
//	VAL002 - Unreadable edit: the submitted row values could not be decoded
//
// # State Errors (STATE001-STATE099)
//
//	STATE001 - Row not found: the row index is outside the table
//	STATE002 - Nothing loaded: no document has been extracted yet
//	STATE003 - Column mismatch: an edit tried to change the column set
//	STATE004 - No data: there is nothing to export
//
// # Matching
//
// Errors are first matched against the sentinels in errors.go with
// errors.Is. When the chain holds a DetailedError its detail, such as the
// extraction service's own error text, is appended to the message. Errors
// that carry no sentinel (context errors, dial errors
// from other layers) fall back to case-insensitive substring patterns.
// ERR000 is returned when nothing matches.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorKind struct {
	target error
	msg    UserMessage
}

// errorKinds is checked in order; more specific entries come first.
var errorKinds = []errorKind{
	{ErrInvalidFileType, UserMessage{
		Message: "Please upload a PDF or image file (JPG/PNG)",
		Action:  "Choose a .pdf, .jpg or .png document",
		Code:    "FILE001",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The selected file is empty",
		Action:  "Choose a document with content",
		Code:    "FILE002",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Scan the invoice at a lower resolution or upload a single page",
		Code:    "FILE003",
	}},
	{ErrNoFileSelected, UserMessage{
		Message: "No file was selected",
		Action:  "Select an invoice before extracting",
		Code:    "FILE004",
	}},
	{ErrExtractionFailed, UserMessage{
		Message: "The document could not be read",
		Action:  "Check the invoice is legible and try again",
		Code:    "NET002",
	}},
	{ErrUploadFailed, UserMessage{
		Message: "Upload failed",
		Action:  "Please try again",
		Code:    "NET001",
	}},
	{ErrDownloadFailed, UserMessage{
		Message: "Download failed",
		Action:  "Please try again",
		Code:    "NET003",
	}},
	{ErrMalformedResponse, UserMessage{
		Message: "The extraction service returned an unexpected response",
		Action:  "Please try again or contact support",
		Code:    "NET004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller document or try again later",
		Code:    "NET006",
	}},
	{ErrTransport, UserMessage{
		Message: "Unable to reach the processing service",
		Action:  "Please try again in a few moments",
		Code:    "NET005",
	}},
	{ErrResponseTooLarge, UserMessage{
		Message: "The processing service sent more data than can be accepted",
		Action:  "Try a smaller document or contact support",
		Code:    "NET008",
	}},
	{ErrTooManyRequests, UserMessage{
		Message: "Another request is still running",
		Action:  "Wait for it to finish and try again",
		Code:    "NET007",
	}},
	{ErrValidation, UserMessage{
		Message: InvalidPlateIDMessage,
		Action:  "Correct the Plate ID and save again",
		Code:    "VAL001",
	}},
	{ErrBadEditRequest, UserMessage{
		Message: "The submitted row values could not be read",
		Action:  "Send the row as a JSON object of strings or as a form",
		Code:    "VAL002",
	}},
	{ErrOutOfRange, UserMessage{
		Message: "That row no longer exists",
		Action:  "Reload the page and select the row again",
		Code:    "STATE001",
	}},
	{ErrNotLoaded, UserMessage{
		Message: "No data has been extracted yet",
		Action:  "Upload an invoice and extract it first",
		Code:    "STATE002",
	}},
	{ErrColumnMismatch, UserMessage{
		Message: "The edited row does not match the table columns",
		Action:  "Reload the page and edit the row again",
		Code:    "STATE003",
	}},
	{ErrNoData, UserMessage{
		Message: "There is no data to export",
		Action:  "Extract an invoice with at least one row",
		Code:    "STATE004",
	}},
}

// errorPatterns catches errors from outside this package's taxonomy.
// Patterns are matched case-insensitively using strings.Contains.
var errorPatterns = []struct {
	pattern string
	code    string
}{
	{"connection refused", "NET005"},
	{"connection reset", "NET005"},
	{"no such host", "NET005"},
	{"timeout", "NET006"},
	{"context canceled", "NET006"},
}

// defaultMessage is returned when nothing matches (ERR000).
// Support staff should check application logs for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(&ValidationError{Field: "Plate ID"})
//	// msg.Code == "VAL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return withDetail(k.msg, err)
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(errStr, p.pattern) {
			return messageForCode(p.code)
		}
	}

	return defaultMessage
}

func withDetail(msg UserMessage, err error) UserMessage {
	var d DetailedError
	if errors.As(err, &d) {
		if detail := d.UserDetail(); detail != "" {
			msg.Message += ": " + detail
		}
	}
	return msg
}

func messageForCode(code string) UserMessage {
	for _, k := range errorKinds {
		if k.msg.Code == code {
			return k.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
