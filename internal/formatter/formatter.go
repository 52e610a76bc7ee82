package formatter

import "fmt"

// File statuses used in reports
const (
	StatusWritten = "written"
	StatusMerged  = "merged"
	StatusSkipped = "skipped"
	StatusBackup  = "backup"
)

// Report is the outcome of a batch command
type Report struct {
	Title    string      `json:"title"`
	Summary  []Item      `json:"summary"`
	Files    []FileEntry `json:"files,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

// Item is one summary line
type Item struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FileEntry is one file the command read or wrote
type FileEntry struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Rows   int    `json:"rows"`
	Detail string `json:"detail,omitempty"`
}

// Add appends a summary line
func (r *Report) Add(label string, value interface{}) {
	r.Summary = append(r.Summary, Item{Label: label, Value: fmt.Sprint(value)})
}

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(report *Report) ([]byte, error)
}

// New returns the formatter for an output format name
func New(format string, color, emoji bool) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTerminal(color, emoji), nil
	case "json":
		return NewJSON(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "csv":
		return NewCSV(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (use text, json, markdown or csv)", format)
	}
}
