package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/yildizm/FlowTrack/internal/record"
)

// ErrMissingDimension is returned when a video flip is requested without
// the matching video width or height
var ErrMissingDimension = errors.New("video flip needs the video dimension")

// Options selects the transformations. They are always applied in this
// order: video flip, negation, shift, timestamp zeroing, rotation.
type Options struct {
	VideoFlipX  bool
	VideoFlipY  bool
	VideoWidth  float64
	VideoHeight float64

	FlipX bool
	FlipY bool

	ShiftX float64
	ShiftY float64

	ZeroTimestamps bool

	// RotateRad wins over RotateDeg when it is non-zero
	RotateDeg float64
	RotateRad float64

	// BackupSuffix names the untouched copy kept by TransformFile
	BackupSuffix string
}

// Angle returns the rotation in radians
func (o Options) Angle() float64 {
	if o.RotateRad != 0 {
		return o.RotateRad
	}
	return o.RotateDeg * math.Pi / 180
}

// Validate reports options that cannot be applied
func (o Options) Validate() error {
	if o.VideoFlipX && o.VideoWidth <= 0 {
		return fmt.Errorf("%w: width", ErrMissingDimension)
	}
	if o.VideoFlipY && o.VideoHeight <= 0 {
		return fmt.Errorf("%w: height", ErrMissingDimension)
	}
	return nil
}

// groupKey identifies one run of one section and flow level
type groupKey struct {
	section string
	flow    float64
	run     string
}

// Apply returns transformed copies of rows; rows itself is not modified.
// Rotation uses x' = x·cosθ − y·sinθ, y' = x·sinθ + y·cosθ.
func Apply(rows []record.Row, opts Options) ([]record.Row, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	out := make([]record.Row, len(rows))
	copy(out, rows)

	for i := range out {
		r := &out[i]
		if opts.VideoFlipX {
			r.X = opts.VideoWidth - r.X
		}
		if opts.VideoFlipY {
			r.Y = opts.VideoHeight - r.Y
		}
		if opts.FlipX {
			r.X = -r.X
		}
		if opts.FlipY {
			r.Y = -r.Y
		}
		r.X += opts.ShiftX
		r.Y += opts.ShiftY
	}

	if opts.ZeroTimestamps {
		// each run starts at the timestamp of its first row in file order
		first := make(map[groupKey]float64)
		for i := range out {
			key := groupKey{out[i].Section, out[i].FlowLevel, out[i].Run}
			start, ok := first[key]
			if !ok {
				start = out[i].Timestamp
				first[key] = start
			}
			out[i].Timestamp -= start
		}
	}

	if theta := opts.Angle(); theta != 0 {
		sin, cos := math.Sincos(theta)
		for i := range out {
			x, y := out[i].X, out[i].Y
			out[i].X = x*cos - y*sin
			out[i].Y = x*sin + y*cos
		}
	}

	return out, nil
}
