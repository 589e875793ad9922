package core

import (
	"slices"
	"sync"
)

// TableRenderer projects a data set onto a Grid and dispatches row
// selection to registered callbacks. It keeps only the last rendered grid.
type TableRenderer struct {
	mu        sync.RWMutex
	last      Grid
	listeners []func(index int)
}

// NewTableRenderer creates a renderer with an empty grid.
func NewTableRenderer() *TableRenderer {
	return &TableRenderer{}
}

// Render builds the grid for ds. Headers come from the key order of the
// first row. An empty data set renders an empty grid.
func (r *TableRenderer) Render(ds DataSet) Grid {
	var grid Grid
	if len(ds) > 0 {
		grid.Headers = ds.Columns()
		grid.Rows = make([]GridRow, len(ds))
		for i, row := range ds {
			cells := make([]string, len(grid.Headers))
			for j, h := range grid.Headers {
				cells[j] = row.Value(h)
			}
			grid.Rows[i] = GridRow{Index: i, Cells: cells}
		}
	}

	r.mu.Lock()
	r.last = grid
	r.mu.Unlock()
	return grid
}

// Last returns the most recently rendered grid.
func (r *TableRenderer) Last() Grid {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// OnRowSelected registers fn to run when a row is selected.
func (r *TableRenderer) OnRowSelected(fn func(index int)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Select dispatches a selection of the row at index in the last grid.
func (r *TableRenderer) Select(index int) error {
	r.mu.RLock()
	n := len(r.last.Rows)
	listeners := slices.Clone(r.listeners)
	r.mu.RUnlock()

	if index < 0 || index >= n {
		return &OutOfRangeError{Index: index, Len: n}
	}
	for _, fn := range listeners {
		fn(index)
	}
	return nil
}
