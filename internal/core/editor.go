package core

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// MissingFieldPolicy decides what happens to a column that is absent from
// a submitted edit.
type MissingFieldPolicy int

const (
	// MissingBlank treats every submitted field set as authoritative: an
	// absent column is committed as "".
	MissingBlank MissingFieldPolicy = iota
	// MissingKeep leaves an absent column at its current value.
	MissingKeep
)

func (p MissingFieldPolicy) String() string {
	switch p {
	case MissingKeep:
		return "keep"
	default:
		return "blank"
	}
}

// ParseMissingFieldPolicy parses "blank" or "keep" (case-insensitive).
func ParseMissingFieldPolicy(s string) (MissingFieldPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blank":
		return MissingBlank, nil
	case "keep":
		return MissingKeep, nil
	default:
		return MissingBlank, fmt.Errorf("unknown missing field policy %q (want blank or keep)", s)
	}
}

// RowEditor turns rows into editable field sets and commits validated
// edits back into a TableState.
type RowEditor struct {
	state  *TableState
	policy MissingFieldPolicy

	mu        sync.RWMutex
	listeners []func(index int)
}

// NewRowEditor creates an editor writing to state.
func NewRowEditor(state *TableState, policy MissingFieldPolicy) *RowEditor {
	return &RowEditor{
		state:  state,
		policy: policy,
	}
}

// Policy returns the configured missing field policy.
func (e *RowEditor) Policy() MissingFieldPolicy {
	return e.policy
}

// OnCommit registers fn to run after every successful commit.
func (e *RowEditor) OnCommit(fn func(index int)) {
	e.mu.Lock()
	e.listeners = append(e.listeners, fn)
	e.mu.Unlock()
}

// BeginEdit returns one field per column of the row at index, in column
// order, pre-populated with the current values.
func (e *RowEditor) BeginEdit(index int) ([]EditableField, error) {
	row, err := e.state.Row(index)
	if err != nil {
		return nil, err
	}

	fields := make([]EditableField, len(row))
	for i, c := range row {
		fields[i] = EditableField{Name: c.Column, Value: c.Value}
		if c.Column == PlateIDColumn {
			fields[i].Constrained = true
			fields[i].Hint = PlateIDHint
		}
	}
	return fields, nil
}

// CommitEdit validates values and, on success, replaces the row at index.
//
// Keys in values that are not columns of the row are ignored. Columns
// missing from values follow the editor's MissingFieldPolicy. On a
// validation failure the state is left untouched.
func (e *RowEditor) CommitEdit(index int, values map[string]string) error {
	err := e.state.ModifyRow(index, func(existing Row) (Row, error) {
		updated := make(Row, len(existing))
		for i, c := range existing {
			v, ok := values[c.Column]
			if !ok && e.policy == MissingKeep {
				v = c.Value
			}
			updated[i] = Cell{Column: c.Column, Value: v}
		}

		if ignored := unknownKeys(values, existing); len(ignored) > 0 {
			slog.Debug("ignoring submitted fields that are not columns",
				"row", index,
				"fields", ignored,
			)
		}

		if err := ValidateRow(updated); err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		return err
	}

	e.mu.RLock()
	listeners := slices.Clone(e.listeners)
	e.mu.RUnlock()
	for _, fn := range listeners {
		fn(index)
	}
	return nil
}

func unknownKeys(values map[string]string, row Row) []string {
	var out []string
	for k := range values {
		if !row.Has(k) {
			out = append(out, k)
		}
	}
	return out
}
