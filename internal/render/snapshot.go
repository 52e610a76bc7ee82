package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
)

// SnapshotName is the file name used for a frame exported at t seconds
func SnapshotName(t float64) string {
	return "frame_" + strconv.FormatFloat(t, 'f', 3, 64) + ".png"
}

// SavePNG writes img to dir/SnapshotName(t), creating dir when needed
func SavePNG(dir string, t float64, img image.Image) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	path := filepath.Join(dir, SnapshotName(t))
	// #nosec G304 - path is built from the configured output directory
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
