// Package watch regenerates bindings whenever a context manifest is saved
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultSettle is how long a path must stay quiet before it is handled.
// Editors often write a file several times in a row.
const DefaultSettle = 150 * time.Millisecond

// FileWatcher watches directory trees for files ending in one of suffixes
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	suffixes []string
	exclude  []string
	settle   time.Duration
	onChange func(path string)
	logger   zerolog.Logger
}

// NewFileWatcher creates a new file watcher
func NewFileWatcher(suffixes, exclude []string, onChange func(path string), logger zerolog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		suffixes: suffixes,
		exclude:  exclude,
		settle:   DefaultSettle,
		onChange: onChange,
		logger:   logger.With().Str("component", "watch").Logger(),
	}, nil
}

// WithSettle overrides the quiet period before a change is handled
func (fw *FileWatcher) WithSettle(d time.Duration) *FileWatcher {
	fw.settle = d
	return fw
}

// AddDirectory recursively adds a directory to the watcher
func (fw *FileWatcher) AddDirectory(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir && fw.excluded(filepath.Base(path)) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}

// Start delivers settled changes to onChange until ctx is done. Changes are
// handled one at a time on the calling goroutine.
func (fw *FileWatcher) Start(ctx context.Context) error {
	pending := make(map[string]time.Time)
	interval := fw.settle / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 && fw.shouldWatch(event.Name) {
				pending[event.Name] = time.Now()
			}

			// If a new directory is created, add it to the watcher
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.AddDirectory(event.Name); err != nil {
						fw.logger.Warn().Err(err).Str("dir", event.Name).Msg("failed to watch new directory")
					}
				}
			}

		case now := <-ticker.C:
			for _, path := range settled(pending, now, fw.settle) {
				delete(pending, path)
				if _, err := os.Stat(path); err != nil {
					continue
				}
				fw.onChange(path)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if err != nil {
				fw.logger.Error().Err(err).Msg("watcher error")
			}
		}
	}
}

// settled returns, in sorted order, the paths quiet for at least d
func settled(pending map[string]time.Time, now time.Time, d time.Duration) []string {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= d {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	return ready
}

// shouldWatch checks if a file should trigger a change event
func (fw *FileWatcher) shouldWatch(path string) bool {
	base := filepath.Base(path)
	if fw.excluded(base) {
		return false
	}
	for _, suffix := range fw.suffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) excluded(base string) bool {
	for _, pattern := range fw.exclude {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// Close stops the watcher
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
