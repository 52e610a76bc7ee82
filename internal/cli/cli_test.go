package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/yildizm/FlowTrack/internal/config"
	"github.com/yildizm/FlowTrack/internal/merge"
	"github.com/yildizm/FlowTrack/internal/record"
	"github.com/yildizm/FlowTrack/internal/transform"
	"github.com/yildizm/FlowTrack/internal/video"
)

// runCLI executes the root command with args
func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCommand("test", "abc123", "2024-01-01")
	cmd.SetArgs(args)
	cmd.SetOut(os.Stderr)
	return cmd.Execute()
}

// writeTestConfig writes a minimal config file into dir
func writeTestConfig(t *testing.T, dir, content string) string {
	t.Helper()
	if content == "" {
		content = config.MinimalSampleConfig()
	}
	path := filepath.Join(dir, "flowtrack.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func writeRecord(t *testing.T, dir, name string, rows []record.Row) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := record.WriteFile(path, rows); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func testRows(section string, flow float64, run string, n int) []record.Row {
	rows := make([]record.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, record.Row{
			Section:   section,
			FlowLevel: flow,
			Run:       run,
			X:         float64(10 * (i + 1)),
			Y:         float64(5 * (i + 1)),
			Timestamp: float64(i) * 0.5,
		})
	}
	return rows
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir, "")
	records := filepath.Join(dir, "records")
	if err := os.MkdirAll(records, 0o750); err != nil {
		t.Fatal(err)
	}
	writeRecord(t, records, "Experiment_I_15_Run_2_20240101_120500.csv", testRows("Experiment_I", 15, "Run_2", 1))
	writeRecord(t, records, "Experiment_I_15_Run_1_20240101_120000.csv", testRows("Experiment_I", 15, "Run_1", 2))
	out := filepath.Join(dir, "compiled")

	if err := runCLI(t, "--config", cfg, "-o", "json", "merge", "--out", out, records); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	rows, err := record.ReadFile(filepath.Join(out, "compiled_data_20240101_120000.csv"))
	if err != nil {
		t.Fatalf("Combined file missing: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0].Run != "Run_1" || rows[2].Run != "Run_2" {
		t.Errorf("Rows not ordered by capture time: %v", rows)
	}
}

func TestMergeCommandErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir, "")
	bad := filepath.Join(dir, "notes.csv")
	if err := os.WriteFile(bad, []byte("a,b\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "no arguments", args: []string{"merge"}},
		{name: "watch with files", args: []string{"merge", "--watch", dir, bad}},
		{name: "no valid files", args: []string{"merge", "--out", filepath.Join(dir, "out"), bad}, want: merge.ErrNoValidFiles},
		{name: "watch a file", args: []string{"merge", "--watch", bad}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(t, append([]string{"--config", cfg, "-o", "json"}, tt.args...)...)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "out")); !os.IsNotExist(err) {
		t.Error("A failed merge should not create the output directory")
	}
}

func TestTransformCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir, "")
	path := writeRecord(t, dir, "compiled_data_20240101_120000.csv", testRows("Experiment_I", 15, "Run_1", 2))

	for i := 0; i < 2; i++ {
		if err := runCLI(t, "--config", cfg, "-o", "json", "transform", "--shift-x", "100", path); err != nil {
			t.Fatalf("transform %d failed: %v", i+1, err)
		}
	}

	rows, err := record.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read transformed file: %v", err)
	}
	if rows[0].X != 110 || rows[1].X != 120 {
		t.Errorf("Expected shifted x of 110 and 120 without compounding, got %v and %v", rows[0].X, rows[1].X)
	}

	backup := transform.BackupPath(path, "")
	original, err := record.ReadFile(backup)
	if err != nil {
		t.Fatalf("Backup missing: %v", err)
	}
	if original[0].X != 10 {
		t.Errorf("Backup was modified: x=%v", original[0].X)
	}
}

func TestTransformCommandMissingDimension(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir, "")
	path := writeRecord(t, dir, "compiled_data_20240101_120000.csv", testRows("Experiment_I", 15, "Run_1", 1))

	err := runCLI(t, "--config", cfg, "transform", "--video-flip-x", path)
	if !errors.Is(err, transform.ErrMissingDimension) {
		t.Fatalf("Expected ErrMissingDimension, got %v", err)
	}
	if fileExists(transform.BackupPath(path, "")) {
		t.Error("A rejected transform should not create a backup")
	}
}

func TestPlotCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir, "")
	data := writeRecord(t, dir, "compiled_data_20240101_120000.csv",
		append(testRows("Experiment_I", 15, "Run_1", 3), testRows("Experiment_II", 20, "Run_2", 3)...))
	selection := filepath.Join(dir, "run_selection.csv")
	table := "flow,Experiment_I,Experiment_II,Experiment_III\n15,1,,\n20,,2,\n25,,,\n"
	if err := os.WriteFile(selection, []byte(table), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "plots", "grid.png")

	err := runCLI(t, "--config", cfg, "-o", "json", "plot",
		"--data", data, "--selection", selection, "--out", out, "--width", "600", "--height", "600")
	if err != nil {
		t.Fatalf("plot failed: %v", err)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("Plot not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Plot is empty")
	}
}

func TestPlotCommandTooSmall(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir, "")
	data := writeRecord(t, dir, "compiled_data_20240101_120000.csv", testRows("Experiment_I", 15, "Run_1", 2))
	out := filepath.Join(dir, "grid.png")

	if err := runCLI(t, "--config", cfg, "plot", "--data", data, "--out", out, "--width", "90", "--height", "90"); err == nil {
		t.Fatal("Expected an error for a tiny image")
	}
	if fileExists(out) {
		t.Error("A failed plot should not leave a file behind")
	}
}

func TestTrackCommandMissingVideo(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir, "")
	outputDir := filepath.Join(dir, "runs")

	err := runCLI(t, "--config", cfg, "track", "--output-dir", outputDir, filepath.Join(dir, "missing.mp4"))
	if !errors.Is(err, video.ErrOpen) {
		t.Fatalf("Expected ErrOpen, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "could not open video") {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if fileExists(outputDir) {
		t.Error("A failed open should not create the output directory")
	}
}

func TestApplyTrackFlags(t *testing.T) {
	base := config.DefaultConfig()
	cmd := newTrackCommand()
	if err := cmd.Flags().Parse([]string{"--delay", "50", "--output-dir", "runs"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg := applyTrackFlags(cmd, base)
	if cfg.Session.FrameDelayMs != 50 || cfg.Session.OutputDir != "runs" {
		t.Errorf("Flags not applied: %+v", cfg.Session)
	}
	if cfg.Session.Zoom != base.Session.Zoom || cfg.Video.DecodeWidth != base.Video.DecodeWidth {
		t.Error("Unset flags should keep the config values")
	}
	if base.Session.FrameDelayMs != 30 {
		t.Error("Base config was modified")
	}
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir, "session:\n  frame_delay_ms: 5\n")

	if err := runCLI(t, "--config", cfg, "merge", dir); err == nil || !strings.Contains(err.Error(), "failed to load configuration") {
		t.Errorf("Expected a configuration error, got %v", err)
	}
	if err := runCLI(t, "--config", cfg, "config", "validate"); err == nil {
		t.Error("Expected validate to report the bad config")
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := runCLI(t, "config", "init", "--minimal"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !fileExists(defaultConfigName) {
		t.Fatalf("Expected %s to be created", defaultConfigName)
	}
	if err := runCLI(t, "config", "init"); err == nil {
		t.Error("Expected an error when the config already exists")
	}
	if err := runCLI(t, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}

	if err := runCLI(t, "--config", defaultConfigName, "config", "validate"); err != nil {
		t.Errorf("Sample config should validate: %v", err)
	}
	if err := runCLI(t, "--config", defaultConfigName, "config", "show", "--format", "json"); err != nil {
		t.Errorf("config show failed: %v", err)
	}
	if err := runCLI(t, "config", "show", "--format", "toml"); err == nil {
		t.Error("Expected an error for an unsupported format")
	}
}

func TestValidateWatchDirPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"directory", dir, false},
		{"empty", "  ", true},
		{"traversal", "../records", true},
		{"file", file, true},
		{"missing", filepath.Join(dir, "missing"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWatchDirPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateWatchDirPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestMergeReport(t *testing.T) {
	result := &merge.Result{
		Output:   "compiled/compiled_data_20240101_120000.csv",
		Earliest: time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local),
		Sources:  []merge.Source{{Path: "records/a_20240101_120000.csv", Rows: 4}},
		Skipped: []merge.Skipped{
			{Path: "records/notes.csv", Err: record.ErrBadFilename},
			{Path: "records/empty.csv", Err: fmt.Errorf("empty file")},
		},
		Rows: 4,
	}

	report := mergeReport(result)
	if len(report.Files) != 3 {
		t.Fatalf("Expected 3 file entries, got %d", len(report.Files))
	}
	if report.Files[0].Path != "a_20240101_120000.csv" || report.Files[0].Rows != 4 {
		t.Errorf("Unexpected merged entry %+v", report.Files[0])
	}
	if len(report.Warnings) != 1 || report.Warnings[0] != "2 files skipped" {
		t.Errorf("Unexpected warnings %v", report.Warnings)
	}
}

func TestTrackCommandUndecodableVideo(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts stand in for ffmpeg")
	}
	dir := t.TempDir()
	ffprobe := filepath.Join(dir, "ffprobe")
	ffmpeg := filepath.Join(dir, "ffmpeg")
	scripts := map[string]string{
		ffprobe: "#!/bin/sh\necho '{\"streams\": [{\"width\": 64, \"height\": 48, \"r_frame_rate\": \"25/1\"}], \"format\": {\"duration\": \"10\"}}'\n",
		ffmpeg:  "#!/bin/sh\necho 'Invalid data found when processing input' >&2\nexit 1\n",
	}
	for path, body := range scripts {
		// #nosec G306 - stand-in binaries must be executable
		if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	cfg := writeTestConfig(t, dir, config.MinimalSampleConfig()+
		"video:\n  ffmpeg_path: "+ffmpeg+"\n  ffprobe_path: "+ffprobe+"\n")
	clip := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(clip, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := runCLI(t, "--config", cfg, "track", "--output-dir", filepath.Join(dir, "runs"), clip)
	if !errors.Is(err, video.ErrOpen) {
		t.Fatalf("Expected ErrOpen, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("Expected ffmpeg's message, got %q", err.Error())
	}
}
