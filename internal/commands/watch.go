package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/okra-platform/prefabind/internal/watch"
)

// WatchRunner blocks until ctx is cancelled, regenerating bindings as manifests change
type WatchRunner interface {
	Run(ctx context.Context) error
}

// WatchRunnerFactory builds the runner for an open project
type WatchRunnerFactory interface {
	NewRunner(c *Controller, p *project) WatchRunner
}

// WatchDependencies for the watch command
type WatchDependencies struct {
	RunnerFactory  WatchRunnerFactory
	SignalNotifier SignalNotifier
}

type defaultWatchRunnerFactory struct{}

func (f *defaultWatchRunnerFactory) NewRunner(c *Controller, p *project) WatchRunner {
	roots := make([]string, 0, len(p.cfg.PrefabDirs))
	for _, dir := range p.cfg.PrefabDirs {
		roots = append(roots, p.cfg.Resolve(dir))
	}
	return watch.NewRunner(roots, p.cfg.Exclude, p.service, os.Stdout, c.logger())
}

// WatchCommand encapsulates the watch logic with injected dependencies
type WatchCommand struct {
	ctrl *Controller
	deps WatchDependencies
}

// NewWatchCommand creates a new watch command with default dependencies
func NewWatchCommand(ctrl *Controller) *WatchCommand {
	return &WatchCommand{
		ctrl: ctrl,
		deps: WatchDependencies{
			RunnerFactory:  &defaultWatchRunnerFactory{},
			SignalNotifier: &defaultSignalNotifier{},
		},
	}
}

// WithDependencies allows injecting custom dependencies for testing
func (wc *WatchCommand) WithDependencies(deps WatchDependencies) *WatchCommand {
	wc.deps = deps
	return wc
}

// Watch regenerates bindings whenever a manifest is saved
func (c *Controller) Watch(ctx context.Context) error {
	return NewWatchCommand(c).Execute(ctx)
}

// Execute runs the watch command
func (wc *WatchCommand) Execute(ctx context.Context) error {
	out := wc.ctrl.out()

	return wc.ctrl.withProject(ctx, func(ctx context.Context, p *project) error {
		out.Printf("📁 Project root: %s\n", p.cfg.Root)
		for _, dir := range p.cfg.PrefabDirs {
			out.Printf("🧩 Prefabs: %s\n", p.cfg.Resolve(dir))
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		// Handle interrupt signals
		sigChan := make(chan os.Signal, 1)
		wc.deps.SignalNotifier.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer wc.deps.SignalNotifier.Stop(sigChan)

		go func() {
			select {
			case <-sigChan:
				out.Println("\n👋 Stopping watch...")
				cancel()
			case <-ctx.Done():
			}
		}()

		runner := wc.deps.RunnerFactory.NewRunner(wc.ctrl, p)
		if err := runner.Run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
		return nil
	})
}
