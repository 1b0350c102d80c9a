// Package binder ties the registry, discovery, marker and codegen packages
// together into the operations the CLI exposes.
package binder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/okra-platform/prefabind/internal/codegen"
	"github.com/okra-platform/prefabind/internal/codegen/model"
	"github.com/okra-platform/prefabind/internal/config"
	"github.com/okra-platform/prefabind/internal/discovery"
	"github.com/okra-platform/prefabind/internal/manifest"
	"github.com/okra-platform/prefabind/internal/marker"
	"github.com/okra-platform/prefabind/internal/registry"
)

// Finder locates the script mentioning an identifier
type Finder interface {
	Find(ctx context.Context, id string) (string, error)
}

// Service performs binding operations for one project
type Service struct {
	cfg        *config.Config
	store      registry.Store
	finder     Finder
	resolver   *codegen.TypeResolver
	generators *codegen.Registry
	logger     zerolog.Logger
}

// Result describes what an update did
type Result struct {
	File       string
	PrefabPath string
	Fields     int
	// Changed is false when the region already held the generated code
	Changed bool
	// Discovered is true when the file was found by scanning
	Discovered bool
}

// NewService creates a service; store is owned by the caller
func NewService(cfg *config.Config, store registry.Store, logger zerolog.Logger) (*Service, error) {
	logger = logger.With().Str("component", "binder").Logger()

	resolver, err := codegen.NewTypeResolver(cfg.Naming.BaseClasses, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:        cfg,
		store:      store,
		finder:     discovery.NewScanner(cfg.CodeRoots(), cfg.Extensions, cfg.Exclude, logger),
		resolver:   resolver,
		generators: codegen.DefaultRegistry,
		logger:     logger,
	}, nil
}

// WithFinder replaces the discovery scanner
func (s *Service) WithFinder(f Finder) *Service {
	s.finder = f
	return s
}

// Init creates a manifest for asset with a fresh identifier
func (s *Service) Init(ctx context.Context, asset string) (*manifest.Manifest, error) {
	asset = filepath.ToSlash(asset)
	if _, err := s.PrefabKey(asset); err != nil {
		return nil, err
	}

	p := s.cfg.Resolve(manifest.PathFor(asset))
	if _, err := os.Stat(p); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrManifestExists, p)
	}

	m := manifest.New(p, asset)
	m.ID = manifest.NewID()
	if err := m.Save(); err != nil {
		return nil, err
	}

	s.logger.Info().Str("manifest", p).Str("id", m.ID).Msg("created context")
	return m, nil
}

// NewID assigns a new identifier to the context. An existing identifier is
// only replaced when force is set; its registry entry is dropped because
// every script tagged with it is now unbound.
func (s *Service) NewID(ctx context.Context, manifestPath string, force bool) (string, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return "", err
	}
	if m.ID != "" && !force {
		return "", fmt.Errorf("%w: %s", ErrIDExists, m.ID)
	}

	old := m.ID
	m.ID = manifest.NewID()
	m.BindFile = ""
	if err := m.Save(); err != nil {
		return "", err
	}

	if old != "" {
		if err := s.store.Remove(ctx, old); err != nil {
			return "", fmt.Errorf("failed to drop old registry entry: %w", err)
		}
	}

	s.logger.Info().Str("old", old).Str("id", m.ID).Msg("issued identifier")
	return m.ID, nil
}

// PrefabKey strips the first matching prefab directory and the extension from asset
func (s *Service) PrefabKey(asset string) (string, error) {
	asset = filepath.ToSlash(asset)
	for _, dir := range s.cfg.PrefabDirs {
		dir = filepath.ToSlash(dir)
		if !strings.HasSuffix(dir, "/") {
			dir += "/"
		}
		if !strings.HasPrefix(asset, dir) {
			continue
		}
		rest := strings.TrimPrefix(asset, dir)
		return strings.TrimSuffix(rest, path.Ext(rest)), nil
	}
	return "", fmt.Errorf("%w: %s (expected one of %s)", ErrOutsideRoots, asset, strings.Join(s.cfg.PrefabDirs, ", "))
}

// Update regenerates the marked region for the context described by manifestPath
func (s *Service) Update(ctx context.Context, manifestPath string) (*Result, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContext, manifestPath)
	}

	key, err := s.PrefabKey(m.Asset)
	if err != nil {
		return nil, err
	}

	t, err := s.target(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	gen, err := s.generators.ForFile(t.file, codegen.Options{Newline: detectNewline(t.text)})
	if err != nil {
		return nil, err
	}

	unit := &model.Unit{
		ID:         m.ID,
		PrefabPath: key,
		Fields:     s.resolver.Resolve(m),
		Naming: model.Naming{
			GetPath:          s.cfg.Naming.GetPath,
			BindComponents:   s.cfg.Naming.BindComponents,
			GetComponent:     s.cfg.Naming.GetComponent,
			BindChildControl: s.cfg.Naming.BindChildControl,
		},
	}
	interior, err := gen.Generate(unit)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s code: %w", gen.Language(), err)
	}

	updated := marker.Substitute(t.text, t.region, string(interior))
	res := &Result{
		File:       t.file,
		PrefabPath: key,
		Fields:     len(unit.Fields),
		Changed:    updated != t.text,
		Discovered: t.discovered,
	}

	if res.Changed {
		if err := os.WriteFile(t.file, []byte(updated), t.mode); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", t.file, err)
		}
	}

	if m.PrefabPath != key || m.BindFile != t.file {
		m.PrefabPath = key
		m.BindFile = t.file
		if err := m.Save(); err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Str("id", m.ID).
		Str("file", t.file).
		Bool("changed", res.Changed).
		Bool("discovered", res.Discovered).
		Msg("updated bindings")
	return res, nil
}

// Locate returns the script for id, consulting the registry before scanning
func (s *Service) Locate(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrNoContext
	}

	if p, ok, err := s.store.Lookup(ctx, id); err != nil {
		return "", err
	} else if ok {
		data, err := os.ReadFile(p)
		if err == nil && marker.Contains(string(data), id) {
			return p, nil
		}
	}

	return s.discover(ctx, id)
}

// Snippet returns the empty region to paste into a new script
func (s *Service) Snippet(id string) string {
	return marker.Snippet(id)
}

type target struct {
	file       string
	text       string
	mode       fs.FileMode
	region     marker.Region
	discovered bool
}

// target resolves the script and region for id: the registry first, then a
// discovery scan when the entry is missing or stale.
func (s *Service) target(ctx context.Context, id string) (*target, error) {
	p, ok, err := s.store.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if ok {
		t, err := s.load(p, id)
		switch {
		case err == nil:
			return t, nil
		case errors.Is(err, marker.ErrDuplicateRegion), errors.Is(err, marker.ErrMalformedRegion):
			return nil, err
		}
		s.logger.Debug().Err(err).Str("id", id).Str("path", p).Msg("registry entry is stale")
	}

	found, err := s.discover(ctx, id)
	if err != nil {
		if ok && errors.Is(err, ErrNoTarget) {
			if rmErr := s.store.Remove(ctx, id); rmErr != nil {
				s.logger.Warn().Err(rmErr).Str("id", id).Msg("failed to drop stale registry entry")
			}
		}
		return nil, err
	}

	t, err := s.load(found, id)
	if err != nil {
		return nil, err
	}
	t.discovered = true
	return t, nil
}

// discover scans the code roots and records the hit
func (s *Service) discover(ctx context.Context, id string) (string, error) {
	found, err := s.finder.Find(ctx, id)
	if errors.Is(err, discovery.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNoTarget, id)
	}
	if err != nil {
		return "", err
	}

	if err := s.store.Record(ctx, id, found); err != nil {
		return "", fmt.Errorf("failed to record %s: %w", found, err)
	}
	return found, nil
}

func (s *Service) load(p, id string) (*target, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}

	text := string(data)
	region, err := marker.FindRegion(text, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}

	return &target{
		file:   p,
		text:   text,
		mode:   info.Mode().Perm(),
		region: region,
	}, nil
}

func detectNewline(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}
