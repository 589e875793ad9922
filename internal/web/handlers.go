package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/platedesk/internal/backend"
	"github.com/JonMunkholm/platedesk/internal/core"
	"github.com/JonMunkholm/platedesk/internal/desk"
	"github.com/JonMunkholm/platedesk/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size limit for the
// multipart envelope.
const multipartOverhead = 1 << 20

// stateResponse is the JSON rendition of a View.
type stateResponse struct {
	desk.Data
	Headers    []string             `json:"headers"`
	EditIndex  *int                 `json:"edit_index,omitempty"`
	Fields     []core.EditableField `json:"fields,omitempty"`
	File       *backend.FileInfo    `json:"file,omitempty"`
	CanExtract bool                 `json:"can_extract"`
	CanSave    bool                 `json:"can_save"`
	CanReset   bool                 `json:"can_reset"`
	Dirty      bool                 `json:"dirty"`
}

// handleIndex renders the main page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, s.desk.View(), nil)
}

// handleHealth reports liveness and backend slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{
		"status":  "ok",
		"backend": s.desk.Limiter().Status(),
	})
}

// handleData returns the current and original rows.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.desk.Data())
}

// handleExtract uploads the posted document and loads its rows.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, s.desk.View())
		return
	}

	if view, err := s.desk.Dispatch(ctx, desk.SelectFile{File: file}); err != nil {
		s.respondError(w, r, err, view)
		return
	}
	view, err := s.desk.Dispatch(ctx, desk.Extract{})
	if err != nil {
		s.respondError(w, r, err, view)
		return
	}

	notice := &templates.Notice{
		Message: fmt.Sprintf("Extracted %d rows from %s", len(view.Grid.Rows), file.Name),
	}
	s.respondView(w, r, view, notice)
}

// readUpload reads the "file" part of a multipart request.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (backend.File, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return backend.File{}, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, maxSize+multipartOverhead)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return backend.File{}, core.ErrNoFileSelected
		}
		return backend.File{}, fmt.Errorf("parse upload form: %w", err)
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return backend.File{}, core.ErrNoFileSelected
		}
		return backend.File{}, fmt.Errorf("read upload: %w", err)
	}
	defer part.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, part); err != nil {
		return backend.File{}, fmt.Errorf("read upload: %w", err)
	}

	return backend.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        buf.Bytes(),
	}, nil
}

// handleEditRow opens the edit form for a row.
func (s *Server) handleEditRow(w http.ResponseWriter, r *http.Request) {
	index, err := rowIndex(r)
	if err != nil {
		s.respondError(w, r, err, s.desk.View())
		return
	}

	view, err := s.desk.Dispatch(r.Context(), desk.SelectRow{Index: index})
	if err != nil {
		s.respondError(w, r, err, view)
		return
	}
	s.respondView(w, r, view, nil)
}

// handleSaveRow commits the edit form of a row.
func (s *Server) handleSaveRow(w http.ResponseWriter, r *http.Request) {
	index, err := rowIndex(r)
	if err != nil {
		s.respondError(w, r, err, s.desk.View())
		return
	}

	values, err := editValues(r)
	if err != nil {
		s.respondError(w, r, err, s.desk.View())
		return
	}

	view, err := s.desk.Dispatch(r.Context(), desk.CommitEdit{Index: index, Values: values})
	if err != nil {
		s.respondError(w, r, err, view)
		return
	}
	s.respondView(w, r, view, &templates.Notice{Message: fmt.Sprintf("Row %d saved", index+1)})
}

// handleCancelEdit closes the edit form.
func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	view, err := s.desk.Dispatch(r.Context(), desk.CancelEdit{})
	if err != nil {
		s.respondError(w, r, err, view)
		return
	}
	s.respondView(w, r, view, nil)
}

// handleReset discards all edits.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	view, err := s.desk.Dispatch(r.Context(), desk.Reset{})
	if err != nil {
		s.respondError(w, r, err, view)
		return
	}
	s.respondView(w, r, view, &templates.Notice{Message: "Data reset to original"})
}

// handleExport sends the current rows to the export endpoint and streams
// the workbook back as an attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	view, err := s.desk.Dispatch(r.Context(), desk.Export{})
	if err != nil {
		s.respondError(w, r, err, view)
		return
	}

	p := view.Payload
	w.Header().Set("Content-Type", p.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, p.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Data)))
	if _, err := w.Write(p.Data); err != nil {
		loggerFor(r).Warn("export write failed", "error", err)
	}
}

// rowIndex parses the {index} URL parameter.
func rowIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid row index %q", core.ErrOutOfRange, raw)
	}
	return index, nil
}

// editValues reads the submitted fields from a form or a JSON object.
func editValues(r *http.Request) (map[string]string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var values map[string]string
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrBadEditRequest, err)
		}
		return values, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBadEditRequest, err)
	}
	values := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			values[k] = v[0]
		}
	}
	return values, nil
}

// respondView answers a successful command.
func (s *Server) respondView(w http.ResponseWriter, r *http.Request, view desk.View, notice *templates.Notice) {
	if wantsJSON(r) {
		writeJSON(w, r, s.stateResponse(view))
		return
	}
	s.renderPage(w, r, http.StatusOK, view, notice)
}

func (s *Server) stateResponse(view desk.View) stateResponse {
	resp := stateResponse{
		Data:       s.desk.Data(),
		Headers:    view.Grid.Headers,
		Fields:     view.Fields,
		File:       view.File,
		CanExtract: view.CanExtract,
		CanSave:    view.CanSave,
		CanReset:   view.CanReset,
		Dirty:      view.Dirty,
	}
	if view.Editing() {
		i := view.EditIndex
		resp.EditIndex = &i
	}
	return resp
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, view desk.View, notice *templates.Notice) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	page := templates.PageData{
		View:        view,
		Notice:      notice,
		MaxFileSize: s.cfg.Upload.MaxFileSize,
	}
	if err := templates.Page(page).Render(r.Context(), w); err != nil {
		loggerFor(r).Error("render page", "error", err)
	}
}
