// Package desk wires the table state, editor, renderer and backend clients
// together behind a single command dispatcher.
//
// Every user action, from the browser or the command line, becomes one
// Command passed to [Desk.Dispatch], which returns the View to show next.
// A failed command returns its error alongside a View of the unchanged
// state; backend failures never touch the loaded rows.
package desk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/platedesk/internal/backend"
	"github.com/JonMunkholm/platedesk/internal/core"
	"github.com/JonMunkholm/platedesk/internal/logging"
	"github.com/JonMunkholm/platedesk/internal/workbook"
)

// Extractor is the extraction side of the processing service.
type Extractor interface {
	Preflight(f backend.File) (backend.FileInfo, error)
	Extract(ctx context.Context, f backend.File) (core.DataSet, error)
}

// Exporter is the export side of the processing service.
type Exporter interface {
	Export(ctx context.Context, ds core.DataSet) (backend.Payload, error)
}

// Options tunes a Desk. Zero values select the defaults.
type Options struct {
	MissingFields core.MissingFieldPolicy
	// Limiter serializes backend round-trips. Defaults to one slot.
	Limiter *core.RequestLimiter
}

// View is everything needed to draw the page after a command.
type View struct {
	Grid core.Grid
	// EditIndex is the row whose form is open, or -1.
	EditIndex int
	Fields    []core.EditableField

	File *backend.FileInfo

	CanExtract bool
	CanSave    bool
	CanReset   bool
	Dirty      bool

	// Payload is set only by a successful Export.
	Payload *backend.Payload
	LoadID  string
}

// Editing reports whether an edit form is open.
func (v View) Editing() bool {
	return v.EditIndex >= 0
}

// Data is a snapshot of both data sets.
type Data struct {
	Current  core.DataSet `json:"data"`
	Original core.DataSet `json:"original"`
	LoadID   string       `json:"load_id,omitempty"`
}

// Desk owns the session's table state. It is safe for concurrent use.
type Desk struct {
	state     *core.TableState
	editor    *core.RowEditor
	renderer  *core.TableRenderer
	extractor Extractor
	exporter  Exporter
	limiter   *core.RequestLimiter

	// mu guards the fields below and is held while renderer and editor
	// callbacks run.
	mu        sync.Mutex
	file      *backend.File
	fileInfo  *backend.FileInfo
	editIndex int
	fields    []core.EditableField
	selectErr error
}

// New creates a Desk with nothing loaded.
func New(ex Extractor, exp Exporter, opts Options) *Desk {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = core.NewRequestLimiter(core.DefaultMaxConcurrentRequests, core.DefaultMaxWaitTime)
	}

	state := core.NewTableState()
	d := &Desk{
		state:     state,
		editor:    core.NewRowEditor(state, opts.MissingFields),
		renderer:  core.NewTableRenderer(),
		extractor: ex,
		exporter:  exp,
		limiter:   limiter,
		editIndex: -1,
	}
	d.renderer.OnRowSelected(d.openEditor)
	d.editor.OnCommit(d.afterCommit)
	return d
}

// Limiter returns the limiter guarding backend calls.
func (d *Desk) Limiter() *core.RequestLimiter {
	return d.limiter
}

// Policy returns the editor's missing field policy.
func (d *Desk) Policy() core.MissingFieldPolicy {
	return d.editor.Policy()
}

// Data returns copies of the current and original rows.
func (d *Desk) Data() Data {
	return Data{
		Current:  d.state.Current(),
		Original: d.state.Original(),
		LoadID:   d.state.LoadID(),
	}
}

// View returns the view of the current state without running a command.
func (d *Desk) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

// Dispatch runs cmd and returns the resulting view.
func (d *Desk) Dispatch(ctx context.Context, cmd Command) (View, error) {
	ctx, logger := logging.WithFields(ctx, "command", cmd.command())
	start := time.Now()

	var (
		view View
		err  error
	)
	switch c := cmd.(type) {
	case SelectFile:
		view, err = d.selectFile(c)
	case Extract:
		view, err = d.extract(ctx)
	case Load:
		view = d.load(ctx, c.Rows)
	case SelectRow:
		view, err = d.selectRow(c)
	case CommitEdit:
		view, err = d.commitEdit(c)
	case CancelEdit:
		view = d.cancelEdit()
	case Reset:
		view, err = d.reset()
	case Export:
		view, err = d.export(ctx)
	default:
		return d.View(), fmt.Errorf("unknown command %T", cmd)
	}

	if err != nil {
		logger.Warn("command failed",
			"error", err,
			"code", core.MapError(err).Code,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return view, err
	}
	logger.Debug("command done", "duration_ms", time.Since(start).Milliseconds())
	return view, nil
}

func (d *Desk) selectFile(c SelectFile) (View, error) {
	info, err := d.extractor.Preflight(c.File)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		return d.viewLocked(), err
	}
	f := c.File
	d.file = &f
	d.fileInfo = &info
	return d.viewLocked(), nil
}

func (d *Desk) extract(ctx context.Context) (View, error) {
	d.mu.Lock()
	f := d.file
	d.mu.Unlock()
	if f == nil {
		return d.View(), core.ErrNoFileSelected
	}

	var rows core.DataSet
	err := d.limiter.Do(ctx, "extract", func(ctx context.Context) error {
		var err error
		rows, err = d.extractor.Extract(ctx, *f)
		return err
	})
	if err != nil {
		return d.View(), err
	}

	return d.load(ctx, rows), nil
}

// load replaces the table under mu so a concurrent commit sees either the
// old rows or the new ones, never a mix.
func (d *Desk) load(ctx context.Context, rows core.DataSet) View {
	d.mu.Lock()
	defer d.mu.Unlock()

	loadID := d.state.Load(rows)
	logging.FromContext(ctx).Info("rows loaded", "load_id", loadID, "rows", len(rows))
	d.closeEditorLocked()
	d.renderer.Render(d.state.Current())
	return d.viewLocked()
}

func (d *Desk) selectRow(c SelectRow) (View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.selectErr = nil
	if err := d.renderer.Select(c.Index); err != nil {
		return d.viewLocked(), err
	}
	if d.selectErr != nil {
		return d.viewLocked(), d.selectErr
	}
	return d.viewLocked(), nil
}

// openEditor runs as the renderer's row selection callback, with mu held.
func (d *Desk) openEditor(index int) {
	fields, err := d.editor.BeginEdit(index)
	if err != nil {
		d.selectErr = err
		return
	}
	d.editIndex = index
	d.fields = fields
}

func (d *Desk) commitEdit(c CommitEdit) (View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.editor.CommitEdit(c.Index, c.Values); err != nil {
		if errors.Is(err, core.ErrValidation) && d.editIndex == c.Index {
			d.keepSubmitted(c.Values)
		}
		return d.viewLocked(), err
	}
	return d.viewLocked(), nil
}

// afterCommit runs as the editor's commit callback, with mu held.
func (d *Desk) afterCommit(index int) {
	d.closeEditorLocked()
	d.renderer.Render(d.state.Current())
}

// keepSubmitted shows the rejected values in the still-open form so they
// can be corrected.
func (d *Desk) keepSubmitted(values map[string]string) {
	for i, f := range d.fields {
		if v, ok := values[f.Name]; ok {
			d.fields[i].Value = v
		}
	}
}

func (d *Desk) cancelEdit() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeEditorLocked()
	return d.viewLocked()
}

func (d *Desk) reset() (View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.state.ResetToOriginal(); err != nil {
		return d.viewLocked(), err
	}
	d.closeEditorLocked()
	d.renderer.Render(d.state.Current())
	return d.viewLocked(), nil
}

func (d *Desk) export(ctx context.Context) (View, error) {
	if !d.state.Loaded() {
		return d.View(), core.ErrNotLoaded
	}
	rows := d.state.Current()

	var payload backend.Payload
	err := d.limiter.Do(ctx, "export", func(ctx context.Context) error {
		var err error
		payload, err = d.exporter.Export(ctx, rows)
		return err
	})
	if err != nil {
		return d.View(), err
	}

	logger := logging.FromContext(ctx).With("load_id", d.state.LoadID(), "bytes", len(payload.Data))
	if s, err := workbook.Summarize(payload.Data); err != nil {
		logger.Warn("exported workbook could not be inspected", "error", err)
	} else {
		logger.Info("workbook exported", "sheets", s.Sheets, "rows", s.Rows)
	}

	view := d.View()
	view.Payload = &payload
	return view, nil
}

func (d *Desk) closeEditorLocked() {
	d.editIndex = -1
	d.fields = nil
}

func (d *Desk) viewLocked() View {
	loaded := d.state.Loaded()
	v := View{
		Grid:       d.renderer.Last(),
		EditIndex:  d.editIndex,
		File:       d.fileInfo,
		CanExtract: d.file != nil,
		CanSave:    loaded && d.state.Len() > 0,
		CanReset:   loaded,
		Dirty:      loaded && d.state.Dirty(),
		LoadID:     d.state.LoadID(),
	}
	if d.fields != nil {
		v.Fields = append([]core.EditableField(nil), d.fields...)
	}
	return v
}
