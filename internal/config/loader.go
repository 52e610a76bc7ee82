package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.flowtrack.yaml",               // Project-specific config (highest priority)
	"~/.config/flowtrack/config.yaml", // User config
	"/etc/flowtrack/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.flowtrack.yaml
// 4. ~/.config/flowtrack/config.yaml
// 5. /etc/flowtrack/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// If custom path is provided, use only that path
	if customPath != "" {
		// Validate the custom path for security
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// Load from standard paths in reverse priority order (lowest to highest)
		paths := make([]string, len(l.configPaths))
		copy(paths, l.configPaths)
		// Reverse the slice to load lowest priority first
		for i := len(paths)/2 - 1; i >= 0; i-- {
			opp := len(paths) - 1 - i
			paths[i], paths[opp] = paths[opp], paths[i]
		}

		for _, path := range paths {
			expandedPath := expandPath(path)
			if fileExists(expandedPath) {
				if err := l.loadFromFile(config, expandedPath); err != nil {
					// Log warning but continue with other config files
					fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
				}
			}
		}
	}

	// Apply environment variable overrides
	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file and merges it with existing config
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() before reaching here
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Create a temporary config to unmarshal into
	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Merge the file config into the existing config
	mergeConfigs(config, &fileConfig)

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Session Config
		"FLOWTRACK_SESSION_OUTPUT_DIR":        func(v string) error { config.Session.OutputDir = v; return nil },
		"FLOWTRACK_SESSION_FRAME_DELAY_MS":    func(v string) error { return parseInt(v, &config.Session.FrameDelayMs) },
		"FLOWTRACK_SESSION_ZOOM":              func(v string) error { return parseFloat(v, &config.Session.Zoom) },
		"FLOWTRACK_SESSION_REWIND_SECONDS":    func(v string) error { return parseFloat(v, &config.Session.RewindSeconds) },
		"FLOWTRACK_SESSION_SKIP_SECONDS":      func(v string) error { return parseFloat(v, &config.Session.SkipSeconds) },
		"FLOWTRACK_SESSION_FAST_SKIP_SECONDS": func(v string) error { return parseFloat(v, &config.Session.FastSkipSeconds) },
		"FLOWTRACK_SESSION_RECENT_POINTS":     func(v string) error { return parseInt(v, &config.Session.RecentPoints) },

		// Video Config
		"FLOWTRACK_VIDEO_FFMPEG_PATH":  func(v string) error { config.Video.FFmpegPath = v; return nil },
		"FLOWTRACK_VIDEO_FFPROBE_PATH": func(v string) error { config.Video.FFprobePath = v; return nil },
		"FLOWTRACK_VIDEO_DECODE_WIDTH": func(v string) error { return parseInt(v, &config.Video.DecodeWidth) },

		// Merge, Transform and Plot Config
		"FLOWTRACK_MERGE_OUTPUT_DIR":        func(v string) error { config.Merge.OutputDir = v; return nil },
		"FLOWTRACK_TRANSFORM_BACKUP_SUFFIX": func(v string) error { config.Transform.BackupSuffix = v; return nil },
		"FLOWTRACK_PLOT_WIDTH":              func(v string) error { return parseInt(v, &config.Plot.Width) },
		"FLOWTRACK_PLOT_HEIGHT":             func(v string) error { return parseInt(v, &config.Plot.Height) },

		// Output Config
		"FLOWTRACK_OUTPUT_COLOR_MODE": func(v string) error { config.Output.ColorMode = v; return nil },
		"FLOWTRACK_OUTPUT_THEME":      func(v string) error { config.Output.Theme = v; return nil },
		"FLOWTRACK_OUTPUT_VERBOSE":    func(v string) error { return parseBool(v, &config.Output.Verbose) },
	}

	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// Comma-separated lists
	if sections := os.Getenv("FLOWTRACK_SESSION_SECTIONS"); sections != "" {
		config.Session.Sections = splitList(sections)
	}
	if levels := os.Getenv("FLOWTRACK_SESSION_FLOW_LEVELS"); levels != "" {
		parsed := make([]float64, 0, len(levels))
		for _, item := range splitList(levels) {
			var level float64
			if err := parseFloat(item, &level); err != nil {
				return fmt.Errorf("invalid value for FLOWTRACK_SESSION_FLOW_LEVELS: %w", err)
			}
			parsed = append(parsed, level)
		}
		config.Session.FlowLevels = parsed
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	// Clean the path to resolve any ".." components
	cleanPath := filepath.Clean(path)

	// Check for path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	// Ensure it's a YAML file
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	// Convert to absolute path for additional validation
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// Basic sanity check - ensure it's not in sensitive system directories
	if strings.HasPrefix(absPath, "/etc/passwd") ||
		strings.HasPrefix(absPath, "/etc/shadow") ||
		strings.HasPrefix(absPath, "/proc/") ||
		strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mergeConfigs merges source config into destination config
// Only non-zero values from source overwrite destination
func mergeConfigs(dst, src *Config) {
	// Version
	if src.Version != "" {
		dst.Version = src.Version
	}

	mergeSessionConfig(&dst.Session, &src.Session)
	mergeVideoConfig(&dst.Video, &src.Video)
	if src.Merge.OutputDir != "" {
		dst.Merge.OutputDir = src.Merge.OutputDir
	}
	if src.Transform.BackupSuffix != "" {
		dst.Transform.BackupSuffix = src.Transform.BackupSuffix
	}
	if src.Plot.Width != 0 {
		dst.Plot.Width = src.Plot.Width
	}
	if src.Plot.Height != 0 {
		dst.Plot.Height = src.Plot.Height
	}
	mergeOutputConfig(&dst.Output, &src.Output)
}

// mergeSessionConfig merges capture session configuration
func mergeSessionConfig(dst, src *SessionConfig) {
	if len(src.Sections) > 0 {
		dst.Sections = src.Sections
	}
	if len(src.FlowLevels) > 0 {
		dst.FlowLevels = src.FlowLevels
	}
	if src.OutputDir != "" {
		dst.OutputDir = src.OutputDir
	}
	if src.FrameDelayMs != 0 {
		dst.FrameDelayMs = src.FrameDelayMs
	}
	if src.Zoom != 0 {
		dst.Zoom = src.Zoom
	}
	if src.RewindSeconds != 0 {
		dst.RewindSeconds = src.RewindSeconds
	}
	if src.SkipSeconds != 0 {
		dst.SkipSeconds = src.SkipSeconds
	}
	if src.FastSkipSeconds != 0 {
		dst.FastSkipSeconds = src.FastSkipSeconds
	}
	if src.RecentPoints != 0 {
		dst.RecentPoints = src.RecentPoints
	}
}

// mergeVideoConfig merges decode backend configuration
func mergeVideoConfig(dst, src *VideoConfig) {
	if src.FFmpegPath != "" {
		dst.FFmpegPath = src.FFmpegPath
	}
	if src.FFprobePath != "" {
		dst.FFprobePath = src.FFprobePath
	}
	if src.DecodeWidth != 0 {
		dst.DecodeWidth = src.DecodeWidth
	}
}

// mergeOutputConfig merges output configuration
func mergeOutputConfig(dst, src *OutputConfig) {
	if src.ColorMode != "" {
		dst.ColorMode = src.ColorMode
	}
	if src.Theme != "" {
		dst.Theme = src.Theme
	}
	// For boolean fields, we need to check if they were explicitly set
	// This is a limitation of YAML unmarshaling, but we'll handle it in env overrides
	mergeIfSet(&dst.Verbose, src.Verbose)
}

// mergeIfSet only merges boolean values when the source enables them;
// disabling goes through FLOWTRACK_OUTPUT_VERBOSE
func mergeIfSet(dst *bool, src bool) {
	if src {
		*dst = src
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseFloat(s string, dst *float64) error {
	val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
