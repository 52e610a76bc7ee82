package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// csvFormatter lists the files of a report as CSV
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(report *Report) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	if err := writer.Write([]string{"path", "status", "rows", "detail"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, file := range report.Files {
		record := []string{file.Path, file.Status, strconv.Itoa(file.Rows), file.Detail}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return b.Bytes(), nil
}
