// Package commands contains the CLI commands for the application
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/okra-platform/prefabind/internal/binder"
	"github.com/okra-platform/prefabind/internal/config"
	"github.com/okra-platform/prefabind/internal/manifest"
	"github.com/okra-platform/prefabind/internal/registry"
)

type Flags struct {
	LogLevel string
	Config   string
}

type Controller struct {
	Flags *Flags

	// Dependencies; nil fields fall back to the real implementations
	Output    Output
	Clipboard Clipboard
	Launcher  Launcher
	Confirm   Confirmer
	Logger    *zerolog.Logger
}

// NewController creates a controller with default dependencies
func NewController(flags *Flags) *Controller {
	return &Controller{Flags: flags}
}

func (c *Controller) out() Output {
	if c.Output == nil {
		return &defaultOutput{}
	}
	return c.Output
}

func (c *Controller) clipboard() Clipboard {
	if c.Clipboard == nil {
		return &systemClipboard{}
	}
	return c.Clipboard
}

func (c *Controller) launcher() Launcher {
	if c.Launcher == nil {
		return &execLauncher{}
	}
	return c.Launcher
}

func (c *Controller) confirm() Confirmer {
	if c.Confirm == nil {
		return &huhConfirmer{}
	}
	return c.Confirm
}

func (c *Controller) logger() zerolog.Logger {
	if c.Logger == nil {
		return log.Logger
	}
	return *c.Logger
}

func (c *Controller) loadConfig() (*config.Config, error) {
	if c.Flags != nil && c.Flags.Config != "" {
		return config.LoadConfigFromPath(c.Flags.Config)
	}
	return config.LoadConfig()
}

// project is everything a command needs to touch one project
type project struct {
	cfg     *config.Config
	store   registry.Store
	service *binder.Service
}

func (p *project) Close() error {
	return p.store.Close()
}

func (c *Controller) openProject() (*project, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	store, err := registry.Open(cfg, c.logger())
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}

	service, err := binder.NewService(cfg, store, c.logger())
	if err != nil {
		store.Close()
		return nil, err
	}

	return &project{cfg: cfg, store: store, service: service}, nil
}

// manifestPath maps a command argument to a manifest file. The argument may
// name the manifest itself or the asset it describes, relative to the
// working directory or to the project root.
func manifestPath(cfg *config.Config, arg string) (string, error) {
	if arg == "" {
		return "", errors.New("a manifest or asset path is required")
	}

	p := arg
	if !strings.HasSuffix(p, manifest.Suffix) {
		p = manifest.PathFor(p)
	}

	if abs, err := filepath.Abs(p); err == nil {
		if _, err := os.Stat(abs); err == nil {
			return abs, nil
		}
	}

	resolved := cfg.Resolve(p)
	if _, err := os.Stat(resolved); err != nil {
		return "", fmt.Errorf("no manifest for %s: %w", arg, err)
	}
	return resolved, nil
}

// explain adds the paste-able region to errors that a missing tag causes
func (c *Controller) explain(p *project, manifestFile string, err error) error {
	if !errors.Is(err, binder.ErrNoTarget) {
		return err
	}

	m, loadErr := manifest.Load(manifestFile)
	if loadErr != nil {
		return err
	}

	c.out().Println("⚠️  No script is tagged for this prefab. Paste this into the class that should own the bindings:")
	c.out().Println(p.service.Snippet(m.ID))
	return err
}

// withProject opens the project for the duration of fn
func (c *Controller) withProject(ctx context.Context, fn func(ctx context.Context, p *project) error) error {
	p, err := c.openProject()
	if err != nil {
		return err
	}
	defer p.Close()

	return fn(ctx, p)
}
