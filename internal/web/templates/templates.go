// Package templates renders the PlateDesk page as templ components.
package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/platedesk/internal/core"
	"github.com/JonMunkholm/platedesk/internal/desk"
)

// Notice is a message shown above the table.
type Notice struct {
	Message string
	Action  string
	Code    string
	// Error marks a blocking failure rather than a confirmation.
	Error bool
}

// ErrorNotice builds a Notice from a mapped error.
func ErrorNotice(msg core.UserMessage) *Notice {
	return &Notice{Message: msg.Message, Action: msg.Action, Code: msg.Code, Error: true}
}

// PageData is everything the page needs.
type PageData struct {
	View   desk.View
	Notice *Notice
	// MaxFileSize is shown next to the upload control.
	MaxFileSize int64
}

// html accumulates the first write error so components read top to bottom.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

// Page renders the full document.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>PlateDesk</title><style>` + pageCSS + `</style></head><body><main>`)
		h.raw(`<h1>Invoice data extraction</h1>`)
		if data.Notice != nil {
			h.render(ctx, Alert(*data.Notice))
		}
		h.render(ctx, UploadForm(data.View, data.MaxFileSize))
		h.render(ctx, Grid(data.View))
		if data.View.Editing() {
			h.render(ctx, EditForm(data.View.EditIndex, data.View.Fields))
		}
		h.render(ctx, Actions(data.View))
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// Alert renders a notice. Errors use role="alert".
func Alert(n Notice) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		if n.Error {
			h.raw(`<div class="notice error" role="alert"><strong>`)
		} else {
			h.raw(`<div class="notice" role="status"><strong>`)
		}
		h.text(n.Message)
		h.raw(`</strong>`)
		if n.Action != "" {
			h.raw(` <span>`)
			h.text(n.Action)
			h.raw(`</span>`)
		}
		if n.Code != "" {
			h.raw(` <code>`)
			h.text(n.Code)
			h.raw(`</code>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}

// UploadForm renders the document picker and the Extract button.
func UploadForm(v desk.View, maxSize int64) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<form class="upload" method="post" action="/extract" enctype="multipart/form-data">`)
		h.raw(`<input type="file" name="file" accept=".pdf,.jpg,.jpeg,.png,application/pdf,image/jpeg,image/png" required>`)
		h.raw(`<button type="submit">Extract</button>`)
		if maxSize > 0 {
			h.raw(`<small>PDF, JPG or PNG, up to `)
			h.text(formatSize(maxSize))
			h.raw(`</small>`)
		}
		if v.File != nil {
			h.raw(`<p class="file">Last file: <span>`)
			h.text(v.File.Name)
			h.raw(`</span>`)
			if v.File.Pages > 1 {
				h.raw(` (only page 1 of `)
				h.text(strconv.Itoa(v.File.Pages))
				h.raw(` is read)`)
			}
			h.raw(`</p>`)
		}
		h.raw(`</form>`)
		return h.err
	})
}

// Grid renders the data table. Each row links to its edit form.
func Grid(v desk.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		if v.Grid.Empty() {
			if v.LoadID != "" {
				h.raw(`<p class="empty">No rows were found in the document.</p>`)
			}
			return h.err
		}

		h.raw(`<table id="data-table"><thead><tr>`)
		for _, col := range v.Grid.Headers {
			h.raw(`<th>`)
			h.text(col)
			h.raw(`</th>`)
		}
		h.raw(`<th></th></tr></thead><tbody>`)
		for _, row := range v.Grid.Rows {
			if row.Index == v.EditIndex {
				h.raw(`<tr class="selected">`)
			} else {
				h.raw(`<tr>`)
			}
			for _, cell := range row.Cells {
				h.raw(`<td>`)
				h.text(cell)
				h.raw(`</td>`)
			}
			h.raw(`<td><a href="/rows/` + strconv.Itoa(row.Index) + `/edit">Edit</a></td></tr>`)
		}
		h.raw(`</tbody></table>`)
		return h.err
	})
}

// EditForm renders one input per column of the selected row.
func EditForm(index int, fields []core.EditableField) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<form class="edit" method="post" action="/rows/` + strconv.Itoa(index) + `">`)
		h.raw(`<h2>Edit row ` + strconv.Itoa(index+1) + `</h2>`)
		for i, f := range fields {
			id := "field-" + strconv.Itoa(i)
			h.raw(`<label for="` + id + `">`)
			h.text(f.Name)
			h.raw(`</label><input type="text" id="` + id + `" name="`)
			h.text(f.Name)
			h.raw(`" value="`)
			h.text(f.Value)
			h.raw(`"`)
			if f.Constrained {
				h.raw(` maxlength="` + strconv.Itoa(core.PlateIDLength) + `" pattern="[0-9]{7}[A-Za-z]{3}" title="`)
				h.text(f.Hint)
				h.raw(`"`)
			}
			h.raw(`>`)
			if f.Hint != "" {
				h.raw(`<small>`)
				h.text(f.Hint)
				h.raw(`</small>`)
			}
		}
		h.raw(`<button type="submit">Save row</button>`)
		h.raw(`<button type="submit" formaction="/rows/cancel" formnovalidate>Cancel</button>`)
		h.raw(`</form>`)
		return h.err
	})
}

// Actions renders Reset and Download, enabled per the view.
func Actions(v desk.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="actions">`)
		h.raw(`<form method="post" action="/reset"><button type="submit"` + disabled(!v.CanReset) + `>Reset to original</button></form>`)
		h.raw(`<form method="post" action="/export"><button type="submit"` + disabled(!v.CanSave) + `>Download Excel</button></form>`)
		h.raw(`</div>`)
		return h.err
	})
}

func disabled(b bool) string {
	if b {
		return " disabled"
	}
	return ""
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return strconv.FormatInt(n>>20, 10) + " MB"
	case n >= 1<<10:
		return strconv.FormatInt(n>>10, 10) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}

const pageCSS = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}` +
	`main{max-width:960px;margin:auto}` +
	`.notice{padding:.75rem;margin:1rem 0;border:1px solid #9c9;background:#efe}` +
	`.notice.error{border-color:#c99;background:#fee}` +
	`table{border-collapse:collapse;width:100%;margin:1rem 0}` +
	`th,td{border:1px solid #ccc;padding:.4rem;text-align:left}` +
	`tr.selected{background:#ffd}` +
	`form.edit label{display:block;margin-top:.5rem}` +
	`.actions{display:flex;gap:.5rem}`
