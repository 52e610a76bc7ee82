package merge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yildizm/FlowTrack/internal/logger"
	"github.com/yildizm/FlowTrack/internal/record"
)

// OutputPrefix starts the name of every combined file
const OutputPrefix = "compiled_data_"

// ErrNoValidFiles is returned when none of the inputs could be merged
var ErrNoValidFiles = errors.New("no valid record files")

// Options configures a merge
type Options struct {
	OutputDir string
	Logger    *logger.Logger
}

// Source is one record file that made it into the combined file
type Source struct {
	Path       string
	CapturedAt time.Time
	Rows       int
}

// Skipped is an input left out of the combined file
type Skipped struct {
	Path string
	Err  error
}

// Result describes a finished merge
type Result struct {
	Output   string
	Earliest time.Time
	Sources  []Source
	Skipped  []Skipped
	Rows     int
}

// OutputName names the combined file after the earliest capture time
func OutputName(earliest time.Time) string {
	return OutputPrefix + earliest.Format(record.StampLayout) + ".csv"
}

type input struct {
	Source
	rows []record.Row
}

// Merge concatenates record files into one combined file. Files whose name
// carries no capture time, or that cannot be read, are skipped with a
// warning. The remaining files are ordered by capture time; rows keep their
// order within each file and are not re-sorted.
func Merge(paths []string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	result := &Result{}
	inputs := make([]input, 0, len(paths))

	for _, path := range paths {
		capturedAt, err := record.ParseCaptureTime(path)
		if err != nil {
			log.WarnWithFields("skipping file", []logger.Field{logger.File(path), logger.Error(err)})
			result.Skipped = append(result.Skipped, Skipped{Path: path, Err: err})
			continue
		}

		rows, err := record.ReadFile(path)
		if err != nil {
			log.WarnWithFields("skipping file", []logger.Field{logger.File(path), logger.Error(err)})
			result.Skipped = append(result.Skipped, Skipped{Path: path, Err: err})
			continue
		}

		inputs = append(inputs, input{
			Source: Source{Path: path, CapturedAt: capturedAt, Rows: len(rows)},
			rows:   rows,
		})
	}

	if len(inputs) == 0 {
		return result, ErrNoValidFiles
	}

	sort.SliceStable(inputs, func(i, j int) bool {
		return inputs[i].CapturedAt.Before(inputs[j].CapturedAt)
	})

	var combined []record.Row
	for _, in := range inputs {
		combined = append(combined, in.rows...)
		result.Sources = append(result.Sources, in.Source)
	}
	result.Earliest = inputs[0].CapturedAt
	result.Rows = len(combined)

	if err := os.MkdirAll(opts.OutputDir, 0o750); err != nil {
		return result, fmt.Errorf("failed to create output directory %s: %w", opts.OutputDir, err)
	}

	result.Output = filepath.Join(opts.OutputDir, OutputName(result.Earliest))
	if err := record.WriteFile(result.Output, combined); err != nil {
		return result, err
	}

	log.InfoWithFields("merged records", []logger.Field{
		logger.File(result.Output),
		logger.F("files", len(result.Sources)),
		logger.F("skipped", len(result.Skipped)),
		logger.F("rows", result.Rows),
	})
	return result, nil
}

// Expand replaces every directory in paths with the record files it
// contains, sorted by name. Combined files are left out so a directory can
// hold both inputs and outputs.
func Expand(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(path, "*.csv"))
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", path, err)
		}
		sort.Strings(matches)
		for _, match := range matches {
			if isRecordName(match) {
				out = append(out, match)
			}
		}
	}
	return out, nil
}

// isRecordName reports whether a directory entry is an input candidate
func isRecordName(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".csv") &&
		!strings.HasPrefix(base, OutputPrefix) &&
		!strings.HasPrefix(base, ".")
}
