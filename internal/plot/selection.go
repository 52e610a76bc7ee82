package plot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/yildizm/FlowTrack/internal/session"
)

// Selection lists the chosen run numbers per section and flow level.
// A nil Selection selects every run present in the data.
type Selection map[string]map[float64][]string

// Runs returns the run labels (Run_<n>) selected for one cell
func (s Selection) Runs(section string, flow float64) []string {
	ids := s[section][flow]
	runs := make([]string, 0, len(ids))
	for _, id := range ids {
		runs = append(runs, runLabel(id))
	}
	return runs
}

// runLabel accepts "3" as well as "Run_3"
func runLabel(id string) string {
	if strings.HasPrefix(id, "Run_") {
		return id
	}
	return "Run_" + id
}

// LoadSelection reads a selection table file
func LoadSelection(path string) (Selection, error) {
	// #nosec G304 - path is the user's selection file
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open selection %s: %w", path, err)
	}
	defer f.Close()

	sel, err := ParseSelection(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read selection %s: %w", path, err)
	}
	return sel, nil
}

// ParseSelection reads a table whose header row names the sections and
// whose first column holds flow levels. Each cell lists run numbers
// separated by semicolons, e.g. "1;3"; a blank cell selects nothing.
func ParseSelection(r io.Reader) (Selection, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty selection table")
	}
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("selection table needs at least one section column")
	}

	sections := make([]string, 0, len(header)-1)
	for _, name := range header[1:] {
		sections = append(sections, strings.TrimSpace(name))
	}

	sel := make(Selection, len(sections))
	for _, section := range sections {
		sel[section] = make(map[float64][]string)
	}

	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
			continue
		}
		flow, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid flow level %q", line, fields[0])
		}

		for i, section := range sections {
			if i+1 >= len(fields) {
				break
			}
			sel[section][flow] = splitRuns(fields[i+1])
		}
	}
	return sel, nil
}

func splitRuns(cell string) []string {
	var runs []string
	for _, part := range strings.Split(cell, ";") {
		if part = strings.TrimSpace(part); part != "" {
			runs = append(runs, part)
		}
	}
	return runs
}

// flowTitle is how a flow level appears in panel titles
func flowTitle(flow float64) string {
	return "flow " + session.FormatFlowLevel(flow)
}
