package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Info is the stream metadata reported by ffprobe
type Info struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
}

type probeOutput struct {
	Streams []struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the first video stream's geometry, frame rate and duration
func Probe(ctx context.Context, ffprobe, path string) (Info, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate:format=duration",
		"-of", "json",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Info{}, fmt.Errorf("%w: ffprobe: %v: %s", ErrOpen, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Info{}, fmt.Errorf("%w: ffprobe: %v", ErrOpen, err)
	}
	return parseProbe(output)
}

func parseProbe(data []byte) (Info, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Info{}, fmt.Errorf("%w: invalid ffprobe output: %v", ErrOpen, err)
	}
	if len(out.Streams) == 0 {
		return Info{}, fmt.Errorf("%w: no video stream", ErrOpen)
	}

	stream := out.Streams[0]
	if stream.Width <= 0 || stream.Height <= 0 {
		return Info{}, fmt.Errorf("%w: stream has no dimensions", ErrOpen)
	}
	fps, err := parseRate(stream.RFrameRate)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrOpen, err)
	}

	var duration float64
	if out.Format.Duration != "" {
		duration, err = strconv.ParseFloat(out.Format.Duration, 64)
		if err != nil {
			return Info{}, fmt.Errorf("%w: parse duration: %v", ErrOpen, err)
		}
	}

	return Info{
		Width:    stream.Width,
		Height:   stream.Height,
		FPS:      fps,
		Duration: duration,
	}, nil
}

// parseRate reads ffprobe rationals such as "30000/1001" or plain "25"
func parseRate(raw string) (float64, error) {
	num, den, found := strings.Cut(raw, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q", raw)
	}
	d := 1.0
	if found {
		d, err = strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid frame rate %q", raw)
		}
	}
	if n <= 0 || d <= 0 {
		return 0, fmt.Errorf("invalid frame rate %q", raw)
	}
	return n / d, nil
}
