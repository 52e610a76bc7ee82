package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/yildizm/FlowTrack/internal/merge"
)

// runMergeWatch merges dir on every change until interrupted
func runMergeWatch(parent context.Context, dir string, opts merge.Options) error {
	if err := validateWatchDirPath(dir); err != nil {
		return fmt.Errorf("invalid watch directory: %w", err)
	}

	// Set up signal handling for graceful shutdown
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Watching directory: %s\n", dir)
		fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop...\n\n")
	}

	err := merge.Watch(ctx, dir, merge.WatchOptions{Options: opts}, handleWatchMerge)
	if err != nil {
		return err
	}
	if isVerbose() {
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
	}
	return nil
}

// handleWatchMerge reports one merge of the watch loop
func handleWatchMerge(result *merge.Result, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s merge failed: %v\n", GetEmoji("warning"), err)
		return
	}
	if reportErr := writeReport(mergeReport(result)); reportErr != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", GetEmoji("error"), reportErr)
	}
}

// validateWatchDirPath validates that a path is a directory safe to watch
func validateWatchDirPath(path string) error {
	// Check for empty path
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty directory path")
	}

	// Clean the path to resolve . and .. elements
	cleanPath := filepath.Clean(path)

	// Check for path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot watch a file, must be a directory")
	}

	return nil
}
