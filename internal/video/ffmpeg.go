package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Options selects the external binaries and decode resolution
type Options struct {
	FFmpegPath  string
	FFprobePath string

	// DecodeWidth is the width frames are scaled to before they reach the
	// terminal. Zero keeps the source width.
	DecodeWidth int
}

// FFmpegSource streams raw RGBA frames from an ffmpeg child process.
// A seek stops the process; the next read restarts it at the new position.
type FFmpegSource struct {
	ctx  context.Context
	path string
	opts Options
	info Info

	decodeW, decodeH int

	start      float64
	framesRead int

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	pixels []byte
}

// Open probes path, decodes the first frame and leaves the source
// positioned at zero. A missing file, a stream ffprobe cannot describe or
// a stream ffmpeg cannot decode fails with ErrOpen.
func Open(ctx context.Context, path string, opts Options) (*FFmpegSource, error) {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}

	info, err := Probe(ctx, opts.FFprobePath, path)
	if err != nil {
		return nil, err
	}

	w, h := decodeSize(info.Width, info.Height, opts.DecodeWidth)
	s := &FFmpegSource{
		ctx:     ctx,
		path:    path,
		opts:    opts,
		info:    info,
		decodeW: w,
		decodeH: h,
		pixels:  make([]byte, w*h*4),
	}

	if _, err := s.ReadFrame(); err != nil {
		s.stopDecoder()
		if errors.Is(err, ErrOpen) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	s.SeekTo(0)
	return s, nil
}

// Info returns the probed stream metadata
func (s *FFmpegSource) Info() Info {
	return s.info
}

// ReadFrame decodes the next frame
func (s *FFmpegSource) ReadFrame() (*Frame, error) {
	if s.cmd == nil {
		if s.info.Duration > 0 && s.start >= s.info.Duration {
			return nil, ErrEndOfStream
		}
		if err := s.startDecoder(); err != nil {
			return nil, err
		}
	}

	if _, err := io.ReadFull(s.stdout, s.pixels); err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			s.stopDecoder()
			return nil, fmt.Errorf("failed to read frame: %w", err)
		}
		if err := s.waitDecoder(); err != nil {
			return nil, err
		}
		s.start = s.Position()
		s.framesRead = 0
		if s.info.Duration > 0 {
			s.start = s.info.Duration
		}
		return nil, ErrEndOfStream
	}

	timestamp := s.Position()
	s.framesRead++

	img := image.NewRGBA(image.Rect(0, 0, s.decodeW, s.decodeH))
	copy(img.Pix, s.pixels)
	return &Frame{Image: img, Timestamp: timestamp}, nil
}

// Position is the timestamp of the next frame to be read
func (s *FFmpegSource) Position() float64 {
	return Clamp(s.start+float64(s.framesRead)/s.info.FPS, s.info.Duration)
}

// Duration returns the probed duration in seconds
func (s *FFmpegSource) Duration() float64 {
	return s.info.Duration
}

// SeekTo moves to t, clamped to the stream
func (s *FFmpegSource) SeekTo(t float64) float64 {
	s.stopDecoder()
	s.start = Clamp(t, s.info.Duration)
	s.framesRead = 0
	return s.start
}

// SeekRelative moves by delta seconds from the current position
func (s *FFmpegSource) SeekRelative(delta float64) float64 {
	return s.SeekTo(s.Position() + delta)
}

// Size returns the source resolution
func (s *FFmpegSource) Size() (int, int) {
	return s.info.Width, s.info.Height
}

// Close stops the decoder
func (s *FFmpegSource) Close() error {
	s.stopDecoder()
	return nil
}

func (s *FFmpegSource) startDecoder() error {
	cmd := exec.CommandContext(s.ctx, s.opts.FFmpegPath, s.decodeArgs(s.start)...)
	s.stderr.Reset()
	cmd.Stderr = &s.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}
	s.cmd = cmd
	s.stdout = stdout
	return nil
}

// waitDecoder reaps a decoder whose output ended. A clean exit is the end
// of the stream; a failed exit is reported with ffmpeg's stderr, as
// ErrOpen when the decoder never produced a frame.
func (s *FFmpegSource) waitDecoder() error {
	cmd := s.cmd
	s.cmd = nil
	s.stdout = nil

	err := cmd.Wait()
	if err == nil {
		return nil
	}
	msg := strings.TrimSpace(s.stderr.String())
	if s.framesRead == 0 {
		return fmt.Errorf("%w: ffmpeg: %v: %s", ErrOpen, err, msg)
	}
	return fmt.Errorf("ffmpeg failed at %.2fs: %v: %s", s.Position(), err, msg)
}

func (s *FFmpegSource) stopDecoder() {
	if s.cmd == nil {
		return
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.cmd = nil
	s.stdout = nil
}

func (s *FFmpegSource) decodeArgs(start float64) []string {
	return []string{
		"-v", "error",
		"-nostdin",
		"-ss", strconv.FormatFloat(start, 'f', 3, 64),
		"-i", s.path,
		"-an",
		"-vf", fmt.Sprintf("scale=%d:%d", s.decodeW, s.decodeH),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	}
}

// decodeSize scales the source down to maxWidth keeping the aspect ratio.
// Both sides stay even, which scale filters expect.
func decodeSize(width, height, maxWidth int) (int, int) {
	if maxWidth <= 0 || maxWidth >= width {
		return width, height
	}
	w := maxWidth &^ 1
	h := int(math.Round(float64(height)*float64(w)/float64(width))) &^ 1
	if h < 2 {
		h = 2
	}
	return w, h
}
