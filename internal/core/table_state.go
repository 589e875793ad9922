package core

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// TableState owns the working data set and the snapshot taken at load time.
//
// current is what gets rendered and exported; original is never mutated
// after Load and only serves ResetToOriginal. Accessors return copies so
// the only way to change a row is UpdateRow.
type TableState struct {
	mu       sync.RWMutex
	current  DataSet
	original DataSet
	columns  []string
	loaded   bool
	loadID   string
}

// NewTableState creates an empty, not yet loaded state.
func NewTableState() *TableState {
	return &TableState{}
}

// Load replaces both data sets with independent copies of rows and returns
// a new load ID. Column order is fixed from the first row; later rows are
// projected onto it. A later Load is always a full replace.
func (s *TableState) Load(rows DataSet) string {
	normalized, adjusted := normalize(rows)
	loadID := uuid.NewString()

	s.mu.Lock()
	s.original = normalized
	s.current = normalized.Clone()
	s.columns = normalized.Columns()
	s.loaded = true
	s.loadID = loadID
	s.mu.Unlock()

	slog.Info("data set loaded",
		"load_id", loadID,
		"rows", len(normalized),
		"columns", len(normalized.Columns()),
	)
	if adjusted > 0 {
		slog.Warn("rows did not match the first row's columns and were projected",
			"load_id", loadID,
			"adjusted", adjusted,
		)
	}
	return loadID
}

// UpdateRow replaces the row at index.
// The row must carry exactly the loaded column set, in order.
func (s *TableState) UpdateRow(index int, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}
	if index < 0 || index >= len(s.current) {
		return &OutOfRangeError{Index: index, Len: len(s.current)}
	}
	if !sameColumns(row.Columns(), s.columns) {
		return fmt.Errorf("%w: got %v, want %v", ErrColumnMismatch, row.Columns(), s.columns)
	}

	s.current[index] = row.Clone()
	return nil
}

// ModifyRow replaces the row at index with fn's result while holding the
// write lock, so no Load or other edit can run between reading the row and
// storing the new one. fn gets a copy and must not call back into s. When
// fn returns an error the row is left unchanged.
func (s *TableState) ModifyRow(index int, fn func(Row) (Row, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}
	if index < 0 || index >= len(s.current) {
		return &OutOfRangeError{Index: index, Len: len(s.current)}
	}

	row, err := fn(s.current[index].Clone())
	if err != nil {
		return err
	}
	if !sameColumns(row.Columns(), s.columns) {
		return fmt.Errorf("%w: got %v, want %v", ErrColumnMismatch, row.Columns(), s.columns)
	}
	s.current[index] = row.Clone()
	return nil
}

// ResetToOriginal discards all edits.
func (s *TableState) ResetToOriginal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}
	s.current = s.original.Clone()
	return nil
}

// Current returns a copy of the working data set.
func (s *TableState) Current() DataSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Original returns a copy of the snapshot taken at load time.
func (s *TableState) Original() DataSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.original.Clone()
}

// Row returns a copy of the row at index.
func (s *TableState) Row(index int) (Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return nil, ErrNotLoaded
	}
	if index < 0 || index >= len(s.current) {
		return nil, &OutOfRangeError{Index: index, Len: len(s.current)}
	}
	return s.current[index].Clone(), nil
}

// Columns returns the column order fixed at load time.
func (s *TableState) Columns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.columns...)
}

// Loaded reports whether a data set has been loaded.
func (s *TableState) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Len returns the number of rows in the working data set.
func (s *TableState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}

// LoadID identifies the current load; empty before the first Load.
func (s *TableState) LoadID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadID
}

// Dirty reports whether the working data set differs from the original.
func (s *TableState) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.current.Equal(s.original)
}
