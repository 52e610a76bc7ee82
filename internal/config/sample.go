package config

// SampleConfig returns a fully documented configuration file
func SampleConfig() string {
	return `# FlowTrack configuration
version: "1.0"

session:
  # Ordered experiment sections; 'm', 'd' and 'c' cycle through them
  sections:
    - Experiment_I
    - Experiment_II
    - Experiment_III
  # Ordered flow levels; 'b', 'a' and 'z' cycle through them
  flow_levels: [15, 20, 25]
  # Directory for per-run record files
  output_dir: output_data
  # Delay between frames in milliseconds (10-200)
  frame_delay_ms: 30
  # Initial zoom factor (0.5-3.0)
  zoom: 1.0
  rewind_seconds: 5
  skip_seconds: 5
  fast_skip_seconds: 60
  # Number of recent points listed in the overlay
  recent_points: 10

video:
  ffmpeg_path: ffmpeg
  ffprobe_path: ffprobe
  # Frames are decoded at this width; captured coordinates stay in source pixels
  decode_width: 320

merge:
  output_dir: compiled_data

transform:
  backup_suffix: _original

plot:
  width: 1800
  height: 1800

output:
  color_mode: auto
  theme: default            # default, high-contrast, minimal
  verbose: false
`
}

// MinimalSampleConfig returns a compact configuration with essential settings
func MinimalSampleConfig() string {
	return `version: "1.0"
session:
  sections: [Experiment_I, Experiment_II, Experiment_III]
  flow_levels: [15, 20, 25]
  output_dir: output_data
`
}
