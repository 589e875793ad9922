package desk

import (
	"github.com/JonMunkholm/platedesk/internal/backend"
	"github.com/JonMunkholm/platedesk/internal/core"
)

// Command is one user action. The concrete types below are the only
// implementations.
type Command interface {
	command() string
}

// SelectFile runs the local checks on a document and remembers it for
// the next Extract.
type SelectFile struct {
	File backend.File
}

// Extract sends the selected document to the extraction endpoint and
// loads the rows it returns.
type Extract struct{}

// Load replaces the table with rows that did not come from the extraction
// endpoint, such as a saved JSON file.
type Load struct {
	Rows core.DataSet
}

// SelectRow opens the edit form for a row.
type SelectRow struct {
	Index int
}

// CommitEdit validates and saves the edit form of a row.
type CommitEdit struct {
	Index  int
	Values map[string]string
}

// CancelEdit closes the edit form without saving.
type CancelEdit struct{}

// Reset discards every edit since the last Extract.
type Reset struct{}

// Export sends the current rows to the export endpoint.
type Export struct{}

func (SelectFile) command() string { return "select_file" }
func (Extract) command() string    { return "extract" }
func (Load) command() string       { return "load" }
func (SelectRow) command() string  { return "select_row" }
func (CommitEdit) command() string { return "commit_edit" }
func (CancelEdit) command() string { return "cancel_edit" }
func (Reset) command() string      { return "reset" }
func (Export) command() string     { return "export" }
