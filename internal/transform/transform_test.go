package transform

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yildizm/FlowTrack/internal/record"
)

const epsilon = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func sampleRows() []record.Row {
	return []record.Row{
		{Section: "Experiment_I", FlowLevel: 15, Run: "Run_1", X: 10, Y: 20, Timestamp: 1.0},
		{Section: "Experiment_I", FlowLevel: 15, Run: "Run_1", X: 30, Y: 40, Timestamp: 2.5},
		{Section: "Experiment_I", FlowLevel: 15, Run: "Run_2", X: 5, Y: 5, Timestamp: 7.0},
		{Section: "Experiment_II", FlowLevel: 15, Run: "Run_1", X: 1, Y: 2, Timestamp: 3.0},
		{Section: "Experiment_I", FlowLevel: 15, Run: "Run_2", X: 6, Y: 6, Timestamp: 9.5},
	}
}

func TestApplyIdentity(t *testing.T) {
	rows := sampleRows()
	out, err := Apply(rows, Options{})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for i := range rows {
		if out[i] != rows[i] {
			t.Errorf("Row %d changed: %+v -> %+v", i, rows[i], out[i])
		}
	}
}

func TestApplyRotation(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		wantX float64
		wantY float64
	}{
		{"90 degrees", Options{RotateDeg: 90}, 0, 1},
		{"180 degrees", Options{RotateDeg: 180}, -1, 0},
		{"radians win", Options{RotateDeg: 180, RotateRad: math.Pi / 2}, 0, 1},
		{"negative", Options{RotateDeg: -90}, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Apply([]record.Row{{X: 1, Y: 0}}, tt.opts)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if !near(out[0].X, tt.wantX) || !near(out[0].Y, tt.wantY) {
				t.Errorf("Expected (%v, %v), got (%v, %v)", tt.wantX, tt.wantY, out[0].X, out[0].Y)
			}
		})
	}
}

func TestApplyOrder(t *testing.T) {
	// video flip, then negation, then shift, then rotation
	opts := Options{
		VideoFlipY:  true,
		VideoHeight: 100,
		FlipX:       true,
		ShiftX:      -100,
		ShiftY:      50,
		RotateDeg:   90,
	}
	out, err := Apply([]record.Row{{X: 10, Y: 20}}, opts)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// y: 100-20=80, +50=130; x: -10, -100=-110; rotate 90: (-130, -110)
	if !near(out[0].X, -130) || !near(out[0].Y, -110) {
		t.Errorf("Expected (-130, -110), got (%v, %v)", out[0].X, out[0].Y)
	}
}

func TestApplyZeroTimestamps(t *testing.T) {
	rows := sampleRows()
	out, err := Apply(rows, Options{ZeroTimestamps: true})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	want := []float64{0, 1.5, 0, 0, 2.5}
	for i, w := range want {
		if !near(out[i].Timestamp, w) {
			t.Errorf("Row %d: expected timestamp %v, got %v", i, w, out[i].Timestamp)
		}
	}
	if rows[1].Timestamp != 2.5 {
		t.Error("Apply must not modify its input")
	}
}

func TestApplyMissingDimension(t *testing.T) {
	for _, opts := range []Options{{VideoFlipX: true}, {VideoFlipY: true, VideoWidth: 10}} {
		if _, err := Apply(sampleRows(), opts); !errors.Is(err, ErrMissingDimension) {
			t.Errorf("Expected ErrMissingDimension for %+v, got %v", opts, err)
		}
	}
}

func TestBackupPath(t *testing.T) {
	tests := []struct {
		path, suffix, want string
	}{
		{"compiled_data.csv", "", "compiled_data_original.csv"},
		{"out/data.csv", "_raw", "out/data_raw.csv"},
		{"data", "", "data_original"},
	}
	for _, tt := range tests {
		if got := BackupPath(tt.path, tt.suffix); got != tt.want {
			t.Errorf("BackupPath(%q, %q) = %q, want %q", tt.path, tt.suffix, got, tt.want)
		}
	}
}

func TestTransformFileKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compiled_data.csv")
	if err := record.WriteFile(path, sampleRows()); err != nil {
		t.Fatal(err)
	}

	opts := Options{ShiftX: 100}
	result, err := TransformFile(path, opts)
	if err != nil {
		t.Fatalf("TransformFile failed: %v", err)
	}
	if !result.BackupCreated || result.Rows != 5 {
		t.Errorf("Unexpected result %+v", result)
	}

	info, err := os.Stat(result.Backup)
	if err != nil {
		t.Fatalf("Expected a backup: %v", err)
	}
	if info.Mode().Perm() != 0o444 {
		t.Errorf("Expected a read-only backup, got %v", info.Mode().Perm())
	}

	// a second run starts from the backup, so the shift does not compound
	result, err = TransformFile(path, opts)
	if err != nil {
		t.Fatalf("second TransformFile failed: %v", err)
	}
	if result.BackupCreated {
		t.Error("Expected the existing backup to be reused")
	}

	rows, err := record.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].X != 110 {
		t.Errorf("Expected x 110 after two runs, got %v", rows[0].X)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), ",110.0,20.0,1.0\n") {
		t.Errorf("Expected transformed coordinates written as floats, got:\n%s", data)
	}

	backup, err := record.ReadFile(result.Backup)
	if err != nil {
		t.Fatal(err)
	}
	if backup[0].X != 10 {
		t.Errorf("Expected the backup to stay untouched, got x %v", backup[0].X)
	}
}

func TestTransformFileMissing(t *testing.T) {
	dir := t.TempDir()
	if _, err := TransformFile(filepath.Join(dir, "none.csv"), Options{}); err == nil {
		t.Error("Expected an error for a missing file")
	}
	if _, err := os.Stat(filepath.Join(dir, "none_original.csv")); !os.IsNotExist(err) {
		t.Error("Expected no backup for a missing file")
	}
}
