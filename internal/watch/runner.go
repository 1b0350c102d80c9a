package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/okra-platform/prefabind/internal/binder"
	"github.com/okra-platform/prefabind/internal/manifest"
)

// Updater regenerates the bindings of one manifest
type Updater interface {
	Update(ctx context.Context, manifestPath string) (*binder.Result, error)
}

// Runner feeds manifest changes under a set of roots to an Updater
type Runner struct {
	roots   []string
	exclude []string
	updater Updater
	out     io.Writer
	logger  zerolog.Logger
}

// NewRunner creates a runner over roots
func NewRunner(roots, exclude []string, updater Updater, out io.Writer, logger zerolog.Logger) *Runner {
	return &Runner{
		roots:   roots,
		exclude: exclude,
		updater: updater,
		out:     out,
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled. Update failures are reported and
// watching continues.
func (r *Runner) Run(ctx context.Context) error {
	return r.run(ctx, 0)
}

func (r *Runner) run(ctx context.Context, settle time.Duration) error {
	fw, err := NewFileWatcher([]string{manifest.Suffix}, r.exclude, func(path string) {
		r.handle(ctx, path)
	}, r.logger)
	if err != nil {
		return err
	}
	defer fw.Close()
	if settle > 0 {
		fw.WithSettle(settle)
	}

	watched := 0
	for _, root := range r.roots {
		if _, err := os.Stat(root); err != nil {
			r.logger.Warn().Err(err).Str("root", root).Msg("skipping prefab root")
			continue
		}
		if err := fw.AddDirectory(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
		watched++
	}
	if watched == 0 {
		return errors.New("none of the prefab roots exist")
	}

	fmt.Fprintln(r.out, "👀 Watching for manifest changes. Press Ctrl+C to stop.")
	err = fw.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) handle(ctx context.Context, path string) {
	res, err := r.updater.Update(ctx, path)
	if err != nil {
		r.logger.Error().Err(err).Str("manifest", path).Msg("update failed")
		fmt.Fprintf(r.out, "❌ %s: %v\n", path, err)
		return
	}
	if res.Changed {
		fmt.Fprintf(r.out, "✅ %s → %s\n", path, res.File)
	}
}
