package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Cell is a single column/value pair of a Row.
type Cell struct {
	Column string
	Value  string
}

// Row is an ordered mapping from column name to cell text.
type Row []Cell

// NewRow builds a Row from alternating column, value arguments.
// A trailing column without a value gets an empty value.
func NewRow(pairs ...string) Row {
	row := make(Row, 0, (len(pairs)+1)/2)
	for i := 0; i < len(pairs); i += 2 {
		var value string
		if i+1 < len(pairs) {
			value = pairs[i+1]
		}
		row = row.Set(pairs[i], value)
	}
	return row
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, c := range r {
		cols[i] = c.Column
	}
	return cols
}

// Get returns the value for column and whether the column exists.
func (r Row) Get(column string) (string, bool) {
	for _, c := range r {
		if c.Column == column {
			return c.Value, true
		}
	}
	return "", false
}

// Value returns the value for column, or "" if absent.
func (r Row) Value(column string) string {
	v, _ := r.Get(column)
	return v
}

// Has reports whether the row has the given column.
func (r Row) Has(column string) bool {
	_, ok := r.Get(column)
	return ok
}

// Set sets column to value in place and returns the row. An existing
// column keeps its position; a new column is appended.
func (r Row) Set(column, value string) Row {
	for i, c := range r {
		if c.Column == column {
			r[i].Value = value
			return r
		}
	}
	return append(r, Cell{Column: column, Value: value})
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Equal reports whether both rows have the same cells in the same order.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the row as a JSON object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Column)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping its key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("row must be a JSON object")
	}
	*r = rowFromResult(res)
	return nil
}

// DataSet is an ordered sequence of rows extracted from one document.
type DataSet []Row

// Columns returns the column order of the data set, taken from its first row.
func (d DataSet) Columns() []string {
	if len(d) == 0 {
		return nil
	}
	return d[0].Columns()
}

// Clone returns a deep copy of the data set.
func (d DataSet) Clone() DataSet {
	if d == nil {
		return nil
	}
	out := make(DataSet, len(d))
	for i, row := range d {
		out[i] = row.Clone()
	}
	return out
}

// Equal reports whether both data sets hold equal rows in the same order.
func (d DataSet) Equal(other DataSet) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if !d[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the data set as a JSON array; nil encodes as [].
func (d DataSet) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Row(d))
}

// UnmarshalJSON decodes a JSON array of objects, keeping key order.
func (d *DataSet) UnmarshalJSON(data []byte) error {
	ds, err := ParseDataSet(data)
	if err != nil {
		return err
	}
	*d = ds
	return nil
}

// ParseDataSet decodes a JSON array of objects into a DataSet.
//
// Keys keep their document order. Strings are taken as-is, null becomes
// "", and other values (numbers, booleans, nested JSON) keep their raw
// JSON text.
func ParseDataSet(data []byte) (DataSet, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	return DataSetFromResult(gjson.ParseBytes(data))
}

// DataSetFromResult converts an already parsed gjson array into a DataSet.
func DataSetFromResult(res gjson.Result) (DataSet, error) {
	if !res.IsArray() {
		return nil, fmt.Errorf("data must be a JSON array")
	}

	ds := DataSet{}
	var err error
	res.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			err = fmt.Errorf("row %d must be a JSON object", len(ds))
			return false
		}
		ds = append(ds, rowFromResult(value))
		return true
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func rowFromResult(obj gjson.Result) Row {
	row := Row{}
	obj.ForEach(func(key, value gjson.Result) bool {
		row = row.Set(key.String(), cellText(value))
		return true
	})
	return row
}

// cellText renders a JSON scalar the way it would appear in a table cell.
func cellText(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	default:
		return v.Raw
	}
}

// normalize projects every row onto the column order of the first row.
// Missing cells become empty and extra columns are dropped.
func normalize(ds DataSet) (DataSet, int) {
	cols := ds.Columns()
	out := make(DataSet, len(ds))
	adjusted := 0
	for i, row := range ds {
		if sameColumns(row.Columns(), cols) {
			out[i] = row.Clone()
			continue
		}
		adjusted++
		projected := make(Row, len(cols))
		for j, col := range cols {
			projected[j] = Cell{Column: col, Value: row.Value(col)}
		}
		out[i] = projected
	}
	return out, adjusted
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// GridRow is one rendered table row with its position in the data set.
type GridRow struct {
	Index int
	Cells []string
}

// Grid is the displayable projection of a data set.
type Grid struct {
	Headers []string
	Rows    []GridRow
}

// Empty reports whether the grid has nothing to show.
func (g Grid) Empty() bool {
	return len(g.Headers) == 0 && len(g.Rows) == 0
}

// EditableField is one input of the row edit form.
type EditableField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	// Constrained is set for columns with a format rule (Plate ID).
	Constrained bool   `json:"constrained,omitempty"`
	Hint        string `json:"hint,omitempty"`
}
