package record

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yildizm/FlowTrack/internal/session"
)

// StampLayout is the capture time layout at the end of every record file name
const StampLayout = "20060102_150405"

// ErrBadFilename is returned for names that do not follow the record pattern
var ErrBadFilename = errors.New("not a record file name")

// Meta is what a record file name encodes
type Meta struct {
	Section    string
	FlowLevel  float64
	Run        int
	CapturedAt time.Time
}

// Filename builds <section>_<flow_level>_Run_<n>_<YYYYMMDD_HHMMSS>.csv
func Filename(section string, flowLevel float64, run int, capturedAt time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s.csv",
		section, session.FormatFlowLevel(flowLevel), session.RunLabel(run), capturedAt.Format(StampLayout))
}

// ParseCaptureTime reads the trailing date and time segments of a file
// name. It only needs the last two underscore-separated parts, so it also
// accepts names whose leading segments differ from the record pattern.
func ParseCaptureTime(name string) (time.Time, error) {
	parts := strings.Split(strings.TrimSuffix(filepath.Base(name), ".csv"), "_")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("%w: %s", ErrBadFilename, name)
	}
	stamp := parts[len(parts)-2] + "_" + parts[len(parts)-1]
	t, err := time.ParseInLocation(StampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrBadFilename, name, err)
	}
	return t, nil
}

// ParseFilename decodes every field of a record file name. Section names
// may themselves contain underscores, so fields are taken from the end.
func ParseFilename(name string) (Meta, error) {
	capturedAt, err := ParseCaptureTime(name)
	if err != nil {
		return Meta{}, err
	}

	parts := strings.Split(strings.TrimSuffix(filepath.Base(name), ".csv"), "_")
	// section..., flow, "Run", n, date, time
	if len(parts) < 6 || parts[len(parts)-4] != "Run" {
		return Meta{}, fmt.Errorf("%w: %s", ErrBadFilename, name)
	}
	run, err := strconv.Atoi(parts[len(parts)-3])
	if err != nil {
		return Meta{}, fmt.Errorf("%w: %s: bad run number", ErrBadFilename, name)
	}
	flow, err := strconv.ParseFloat(parts[len(parts)-5], 64)
	if err != nil {
		return Meta{}, fmt.Errorf("%w: %s: bad flow level", ErrBadFilename, name)
	}

	return Meta{
		Section:    strings.Join(parts[:len(parts)-5], "_"),
		FlowLevel:  flow,
		Run:        run,
		CapturedAt: capturedAt,
	}, nil
}
