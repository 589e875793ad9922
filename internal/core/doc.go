// Package core provides the session state and editing rules for extracted
// invoice rows.
//
// This package holds all domain logic independent of any UI or transport
// layer. It can be used by the web handlers, the CLI, or tests without
// modification.
//
// # Architecture
//
// The package is organized around a single owned state object and the
// components that read or write it:
//
//   - [TableState]: the working data set ("current") and the pristine
//     snapshot taken at load time ("original").
//   - [RowEditor]: turns a row into an editable field set and commits edits
//     back through TableState after validation.
//   - [TableRenderer]: projects a data set onto a [Grid] and dispatches row
//     selection.
//   - [ValidatePlateID]: the one field rule, applied to the "Plate ID"
//     column.
//
// Nothing outside TableState keeps its own copy of row data. Accessors
// return copies, and the only way to change a row is [TableState.UpdateRow]
// (normally reached through [RowEditor.CommitEdit]).
//
// # Data Shape
//
// A [Row] is an ordered list of cells. All rows of a [DataSet] share the
// column order of the first row; [TableState.Load] projects later rows
// onto that column set:
//
//	ds, _ := core.ParseDataSet([]byte(`[{"Plate ID":"1234567ABC","Amount":10}]`))
//	state := core.NewTableState()
//	loadID := state.Load(ds)
//
// # Error Handling
//
// The error taxonomy lives in errors.go as sentinels that typed errors
// match through errors.Is. [MapError] turns any of them into a
// [UserMessage] with a support code:
//
//   - FILE001-FILE004: local file checks
//   - NET001-NET007: extraction and export round-trips
//   - VAL001: Plate ID format
//   - STATE001-STATE004: state access misuse
//
// # Concurrency
//
// TableState, RowEditor and TableRenderer are safe for concurrent use.
// [RequestLimiter] bounds how many backend round-trips may be in flight.
package core
