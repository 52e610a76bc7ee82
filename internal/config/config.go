package config

import (
	"fmt"

	"github.com/yildizm/FlowTrack/internal/session"
)

// Config holds the complete application configuration
type Config struct {
	Version   string          `yaml:"version" json:"version"`
	Session   SessionConfig   `yaml:"session" json:"session"`
	Video     VideoConfig     `yaml:"video" json:"video"`
	Merge     MergeConfig     `yaml:"merge" json:"merge"`
	Transform TransformConfig `yaml:"transform" json:"transform"`
	Plot      PlotConfig      `yaml:"plot" json:"plot"`
	Output    OutputConfig    `yaml:"output" json:"output"`
}

// SessionConfig configures the interactive capture session
type SessionConfig struct {
	Sections        []string  `yaml:"sections" json:"sections"`                   // ordered section names
	FlowLevels      []float64 `yaml:"flow_levels" json:"flow_levels"`             // ordered flow levels
	OutputDir       string    `yaml:"output_dir" json:"output_dir"`               // record file directory
	FrameDelayMs    int       `yaml:"frame_delay_ms" json:"frame_delay_ms"`       // initial delay, 10-200
	Zoom            float64   `yaml:"zoom" json:"zoom"`                           // initial zoom, 0.5-3.0
	RewindSeconds   float64   `yaml:"rewind_seconds" json:"rewind_seconds"`       // 'r'
	SkipSeconds     float64   `yaml:"skip_seconds" json:"skip_seconds"`           // 'f'
	FastSkipSeconds float64   `yaml:"fast_skip_seconds" json:"fast_skip_seconds"` // 'g' and 'e'
	RecentPoints    int       `yaml:"recent_points" json:"recent_points"`         // overlay tail length
}

// VideoConfig configures the ffmpeg decode backend
type VideoConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path" json:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path" json:"ffprobe_path"`
	DecodeWidth int    `yaml:"decode_width" json:"decode_width"` // frames are scaled to this width
}

// MergeConfig configures record merging
type MergeConfig struct {
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// TransformConfig configures coordinate transformation
type TransformConfig struct {
	BackupSuffix string `yaml:"backup_suffix" json:"backup_suffix"`
}

// PlotConfig configures the grid plot
type PlotConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	ColorMode string `yaml:"color_mode" json:"color_mode"` // auto|always|never
	Theme     string `yaml:"theme" json:"theme"`           // default|high-contrast|minimal
	Verbose   bool   `yaml:"verbose" json:"verbose"`       // default verbosity
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Session: SessionConfig{
			Sections:        []string{"Experiment_I", "Experiment_II", "Experiment_III"},
			FlowLevels:      []float64{15, 20, 25},
			OutputDir:       "output_data",
			FrameDelayMs:    30,
			Zoom:            1.0,
			RewindSeconds:   5,
			SkipSeconds:     5,
			FastSkipSeconds: 60,
			RecentPoints:    10,
		},
		Video: VideoConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			DecodeWidth: 320,
		},
		Merge: MergeConfig{
			OutputDir: "compiled_data",
		},
		Transform: TransformConfig{
			BackupSuffix: "_original",
		},
		Plot: PlotConfig{
			Width:  1800,
			Height: 1800,
		},
		Output: OutputConfig{
			ColorMode: "auto",
			Theme:     "default",
			Verbose:   false,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateSessionConfig(); err != nil {
		return err
	}
	if err := c.validateVideoConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	if c.Plot.Width < 1 || c.Plot.Height < 1 {
		return fmt.Errorf("plot width and height must be greater than 0")
	}
	return nil
}

// validateSessionConfig validates the capture session settings
func (c *Config) validateSessionConfig() error {
	s := c.Session
	if len(s.Sections) == 0 {
		return fmt.Errorf("session.sections must not be empty")
	}
	seen := make(map[string]bool, len(s.Sections))
	for _, name := range s.Sections {
		if name == "" {
			return fmt.Errorf("session.sections must not contain empty names")
		}
		if seen[name] {
			return fmt.Errorf("duplicate section: %s", name)
		}
		seen[name] = true
	}
	if len(s.FlowLevels) == 0 {
		return fmt.Errorf("session.flow_levels must not be empty")
	}
	levels := make(map[float64]bool, len(s.FlowLevels))
	for _, level := range s.FlowLevels {
		if levels[level] {
			return fmt.Errorf("duplicate flow level: %v", level)
		}
		levels[level] = true
	}
	if s.OutputDir == "" {
		return fmt.Errorf("session.output_dir must not be empty")
	}
	if s.FrameDelayMs < session.MinFrameDelayMs || s.FrameDelayMs > session.MaxFrameDelayMs {
		return fmt.Errorf("frame_delay_ms must be between %d and %d", session.MinFrameDelayMs, session.MaxFrameDelayMs)
	}
	if s.Zoom < session.MinZoom || s.Zoom > session.MaxZoom {
		return fmt.Errorf("zoom must be between %.1f and %.1f", session.MinZoom, session.MaxZoom)
	}
	if s.RewindSeconds <= 0 || s.SkipSeconds <= 0 || s.FastSkipSeconds <= 0 {
		return fmt.Errorf("rewind, skip and fast skip seconds must be greater than 0")
	}
	if s.RecentPoints < 0 {
		return fmt.Errorf("recent_points must be non-negative")
	}
	return nil
}

func (c *Config) validateVideoConfig() error {
	if c.Video.DecodeWidth < 16 {
		return fmt.Errorf("decode_width must be at least 16")
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	switch c.Output.Theme {
	case "", "default", "high-contrast", "minimal":
	default:
		return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.Output.Theme)
	}
	return nil
}

// Catalog returns the section and flow level lists a session navigates
func (c *Config) Catalog() session.Catalog {
	return session.Catalog{
		Sections:   append([]string(nil), c.Session.Sections...),
		FlowLevels: append([]float64(nil), c.Session.FlowLevels...),
	}
}
