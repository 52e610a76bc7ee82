package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yildizm/FlowTrack/internal/session"
)

// Header is the column order of every record and combined file
var Header = []string{"section", "flow_level", "run", "x", "y", "timestamp"}

// legacyColumns maps older column names onto the current schema
var legacyColumns = map[string]string{
	"v_flow": "flow_level",
}

// ErrMissingColumn is returned when a file lacks one of the Header columns
var ErrMissingColumn = errors.New("missing column")

// Layout selects how coordinates are written
type Layout int

const (
	// PixelLayout writes whole coordinates as integers, as captured
	PixelLayout Layout = iota
	// FloatLayout writes every coordinate with a decimal point, for
	// transformed data
	FloatLayout
)

// Row is one line of a record file. Coordinates are floats so the same
// type carries both raw captures and transformed data.
type Row struct {
	Section   string
	FlowLevel float64
	Run       string
	X         float64
	Y         float64
	Timestamp float64
}

// FromPoint converts a captured point into a row
func FromPoint(p session.Point) Row {
	return Row{
		Section:   p.Section,
		FlowLevel: p.FlowLevel,
		Run:       p.Run,
		X:         float64(p.X),
		Y:         float64(p.Y),
		Timestamp: p.Timestamp,
	}
}

// Record returns the row's CSV fields in Header order
func (r Row) Record() []string {
	return r.RecordAs(PixelLayout)
}

// RecordAs returns the row's CSV fields with coordinates in layout
func (r Row) RecordAs(layout Layout) []string {
	coordinate := formatCoordinate
	if layout == FloatLayout {
		coordinate = formatFloat
	}
	return []string{
		r.Section,
		session.FormatFlowLevel(r.FlowLevel),
		r.Run,
		coordinate(r.X),
		coordinate(r.Y),
		formatFloat(r.Timestamp),
	}
}

// Encode writes the header and rows as CSV
func Encode(w io.Writer, rows []Row) error {
	return EncodeLayout(w, rows, PixelLayout)
}

// EncodeLayout writes the header and rows as CSV, coordinates in layout
func EncodeLayout(w io.Writer, rows []Row, layout Layout) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row.RecordAs(layout)); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// Decode reads rows from CSV with a header line. Columns are matched by
// name, so extra columns and other orders are accepted.
func Decode(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: %w", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if mapped, ok := legacyColumns[name]; ok {
			name = mapped
		}
		index[name] = i
	}
	for _, column := range Header {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := parseRow(fields, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(fields []string, index map[string]int) (Row, error) {
	get := func(column string) (string, error) {
		i := index[column]
		if i >= len(fields) {
			return "", fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
		return strings.TrimSpace(fields[i]), nil
	}

	var row Row
	var err error
	if row.Section, err = get("section"); err != nil {
		return Row{}, err
	}
	if row.Run, err = get("run"); err != nil {
		return Row{}, err
	}

	numbers := []struct {
		column string
		dst    *float64
	}{
		{"flow_level", &row.FlowLevel},
		{"x", &row.X},
		{"y", &row.Y},
		{"timestamp", &row.Timestamp},
	}
	for _, n := range numbers {
		raw, err := get(n.column)
		if err != nil {
			return Row{}, err
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Row{}, fmt.Errorf("invalid %s %q: %w", n.column, raw, err)
		}
		*n.dst = value
	}
	return row, nil
}

// ReadFile reads every row of a record or combined file
func ReadFile(path string) ([]Row, error) {
	// #nosec G304 - record paths come from the user's own selection
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// WriteFile replaces path with rows. The data goes to a temporary file in
// the same directory first and is renamed into place, so readers never
// observe a half-written file.
func WriteFile(path string, rows []Row) error {
	return WriteFileLayout(path, rows, PixelLayout)
}

// WriteFileLayout is WriteFile with coordinates written in layout
func WriteFileLayout(path string, rows []Row, layout Layout) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := EncodeLayout(tmp, rows, layout); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	tmpPath = ""
	return nil
}

// formatCoordinate keeps whole pixels as integers ("10") and writes
// anything else with full precision.
func formatCoordinate(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatFloat always carries a decimal point ("1.0", "2.5") so values
// read back as floats in every downstream tool.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
