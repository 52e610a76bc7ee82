package video

import (
	"errors"
	"image"
)

var (
	// ErrEndOfStream is returned by ReadFrame once the last frame was read
	ErrEndOfStream = errors.New("end of stream")

	// ErrOpen wraps every failure to inspect or decode a video file
	ErrOpen = errors.New("could not open video")
)

// Frame is one decoded picture. Image is shared with the caller and must
// not be modified; compose overlays into a copy.
type Frame struct {
	Image     *image.RGBA
	Timestamp float64
}

// Source is a seekable, sequentially read video
type Source interface {
	// ReadFrame returns the next frame or ErrEndOfStream
	ReadFrame() (*Frame, error)

	// Position is the stream position in seconds
	Position() float64

	// Duration is the length of the video in seconds
	Duration() float64

	// SeekTo moves to t clamped to [0, Duration] and returns the new position
	SeekTo(t float64) float64

	// SeekRelative moves by delta seconds, clamped, and returns the new position
	SeekRelative(delta float64) float64

	// Size reports the source resolution. Captured coordinates are always
	// expressed in this pixel space.
	Size() (width, height int)

	Close() error
}

// Clamp limits t to [0, duration]
func Clamp(t, duration float64) float64 {
	if t < 0 {
		return 0
	}
	if duration > 0 && t > duration {
		return duration
	}
	return t
}
