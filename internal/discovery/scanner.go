// Package discovery finds the script that carries an identifier when the
// registry has no usable entry for it.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/okra-platform/prefabind/internal/marker"
)

// ErrNotFound means no file under any root mentions the identifier
var ErrNotFound = errors.New("no script contains the identifier")

// Scanner walks code roots looking for an identifier
type Scanner struct {
	roots      []string
	extensions []string
	exclude    []string
	logger     zerolog.Logger
}

// NewScanner creates a scanner over roots, restricted to files with one of extensions
func NewScanner(roots, extensions, exclude []string, logger zerolog.Logger) *Scanner {
	return &Scanner{
		roots:      roots,
		extensions: extensions,
		exclude:    exclude,
		logger:     logger.With().Str("component", "discovery").Logger(),
	}
}

// Find returns the absolute path of the first file, in lexical walk order,
// whose content contains id. It never writes to disk.
func (s *Scanner) Find(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", marker.ErrEmptyID
	}

	for _, root := range s.roots {
		found, err := s.scanRoot(ctx, root, id)
		if err != nil {
			return "", err
		}
		if found != "" {
			return found, nil
		}
	}

	return "", fmt.Errorf("%w: %s (searched %s)", ErrNotFound, id, strings.Join(s.roots, ", "))
}

var errStop = errors.New("stop walk")

func (s *Scanner) scanRoot(ctx context.Context, root, id string) (string, error) {
	if _, err := os.Stat(root); err != nil {
		s.logger.Warn().Err(err).Str("root", root).Msg("skipping code root")
		return "", nil
	}

	var found string
	scanned := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			s.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.excluded(d.Name()) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !s.matchesExtension(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable file")
			return nil
		}
		scanned++

		if marker.Contains(string(data), id) {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			found = abs
			return errStop
		}
		return nil
	})

	s.logger.Debug().Str("root", root).Int("scanned", scanned).Str("found", found).Msg("scanned code root")

	if errors.Is(err, errStop) {
		return found, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return "", nil
}

func (s *Scanner) matchesExtension(path string) bool {
	for _, ext := range s.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (s *Scanner) excluded(name string) bool {
	for _, pattern := range s.exclude {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
