package merge

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yildizm/FlowTrack/internal/logger"
)

// DefaultDebounce is how long a directory must stay quiet before a re-merge
const DefaultDebounce = 500 * time.Millisecond

// WatchOptions configures Watch
type WatchOptions struct {
	Options
	Debounce time.Duration
}

// Watch merges every record file in dir, then merges again each time record
// files are created or written, once dir has been quiet for the debounce
// interval. onMerge receives every outcome. Watch returns when ctx is done.
func Watch(ctx context.Context, dir string, opts WatchOptions, onMerge func(*Result, error)) error {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer cleanupWatcher(watcher, log)

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}
	log.InfoWithFields("watching for records", []logger.Field{logger.File(dir)})

	run := func() {
		paths, err := Expand([]string{dir})
		if err != nil {
			onMerge(nil, err)
			return
		}
		onMerge(Merge(paths, opts.Options))
	}
	run()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if isMergeTrigger(event) {
				log.DebugWithFields("record changed", []logger.Field{logger.File(event.Name), logger.F("op", event.Op.String())})
				timer.Reset(debounce)
			}

		case <-timer.C:
			run()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Warn("watcher error: %v", err)
		}
	}
}

// isMergeTrigger reports whether an event should cause a re-merge
func isMergeTrigger(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	return isRecordName(event.Name)
}

// cleanupWatcher closes the watcher, logging a failure
func cleanupWatcher(watcher *fsnotify.Watcher, log *logger.Logger) {
	if err := watcher.Close(); err != nil {
		log.Warn("failed to close watcher: %v", err)
	}
}
