package record

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yildizm/FlowTrack/internal/session"
)

// ErrRecordExists is returned when a record for the same section, flow
// level and run was already written within the same second. The buffer is
// kept so the flush can be retried.
var ErrRecordExists = errors.New("record file already exists")

// Persister writes the buffered points of a run to its own record file
type Persister struct {
	Dir string
	Now func() time.Time
}

// NewPersister creates a persister writing into dir
func NewPersister(dir string) *Persister {
	return &Persister{Dir: dir, Now: time.Now}
}

// Flush writes buf under a name built from the state and the wall clock,
// then clears buf. An empty buffer performs no I/O and returns "".
// Files are created exclusively; a name collision within the same second
// fails with ErrRecordExists instead of overwriting.
func (p *Persister) Flush(s session.State, buf *session.Buffer) (string, error) {
	if buf.Len() == 0 {
		return "", nil
	}

	if err := os.MkdirAll(p.Dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", p.Dir, err)
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	path := filepath.Join(p.Dir, Filename(s.Section(), s.FlowLevel(), s.Run, now()))

	// #nosec G304 - path is built from configured names
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrRecordExists, path)
		}
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	points := buf.Points()
	rows := make([]Row, 0, len(points))
	for _, point := range points {
		rows = append(rows, FromPoint(point))
	}

	if err := Encode(f, rows); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	buf.Clear()
	return path, nil
}
