// Package registry remembers which script holds the marked region for each
// identifier so that updates can skip the full discovery scan.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/okra-platform/prefabind/internal/config"
)

// ErrCorrupt is returned when the backing store exists but cannot be parsed.
// The store is left untouched so the user can repair it by hand.
var ErrCorrupt = errors.New("registry backing store is corrupt")

// Entry is a single identifier to path mapping
type Entry struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Store maps identifiers to the absolute path of their bind file
type Store interface {
	// Lookup returns the recorded path, ok is false for unknown identifiers
	Lookup(ctx context.Context, id string) (path string, ok bool, err error)

	// Record stores or overwrites the mapping and persists it before returning
	Record(ctx context.Context, id, path string) error

	// Remove drops the mapping; unknown identifiers are ignored
	Remove(ctx context.Context, id string) error

	// List returns every entry ordered by identifier
	List(ctx context.Context) ([]Entry, error)

	Close() error
}

// Open returns the store selected by cfg
func Open(cfg *config.Config, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "registry").Str("backend", cfg.Registry.Backend).Logger()

	switch cfg.Registry.Backend {
	case config.BackendJSON:
		return NewFileStore(cfg.RegistryPath(), logger), nil
	case config.BackendSQLite:
		return OpenSQLiteStore(cfg.RegistryPath(), logger)
	default:
		return nil, fmt.Errorf("unsupported registry backend: %s", cfg.Registry.Backend)
	}
}
