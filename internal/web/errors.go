package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. A handler's Dispatch returns an error with the unchanged view
//  2. The handler calls respondError(w, r, err, view)
//  3. The error is mapped via core.MapError to a user-friendly message
//  4. The technical error is logged with the request ID for correlation
//  5. The user message is rendered as an alert in the page, an alert
//     fragment for htmx callers, or a JSON body for API callers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/platedesk/internal/core"
	"github.com/JonMunkholm/platedesk/internal/desk"
	"github.com/JonMunkholm/platedesk/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a domain error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrNoFileSelected),
		errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrBadEditRequest),
		errors.Is(err, core.ErrColumnMismatch):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNotLoaded),
		errors.Is(err, core.ErrNoData):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrUploadFailed),
		errors.Is(err, core.ErrExtractionFailed),
		errors.Is(err, core.ErrDownloadFailed),
		errors.Is(err, core.ErrMalformedResponse),
		errors.Is(err, core.ErrResponseTooLarge),
		errors.Is(err, core.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and answers with its user message. view is the
// state to redraw behind the alert for browser requests.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, view desk.View) {
	userMsg := core.MapError(err)
	status := statusFor(err)

	// Log the technical error with context
	loggerFor(r).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.Alert(*templates.ErrorNotice(userMsg)).Render(r.Context(), w)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, status)
	default:
		s.renderPage(w, r, status, view, templates.ErrorNotice(userMsg))
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	contentType := r.Header.Get("Content-Type")

	// Check Accept header
	if strings.Contains(accept, "application/json") {
		return true
	}

	// Check if request is sending JSON
	if strings.Contains(contentType, "application/json") {
		return true
	}

	// API routes default to JSON
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}

	return false
}
