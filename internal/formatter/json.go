package formatter

import (
	"encoding/json"
	"time"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct {
	now func() time.Time
}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{now: time.Now}
}

// jsonOutput wraps a report with its generation time
type jsonOutput struct {
	GeneratedAt time.Time `json:"generated_at"`
	*Report
}

func (f *jsonFormatter) Format(report *Report) ([]byte, error) {
	return json.MarshalIndent(jsonOutput{GeneratedAt: f.now(), Report: report}, "", "  ")
}
