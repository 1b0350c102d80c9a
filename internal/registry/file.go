package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
)

// FileStore keeps the registry as a flat, human-editable JSON object.
// Every call reads or rewrites the whole file.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore creates a store backed by the JSON file at path
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file location
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Lookup(ctx context.Context, id string) (string, bool, error) {
	m, err := s.read()
	if err != nil {
		return "", false, err
	}
	p, ok := m[id]
	return p, ok, nil
}

func (s *FileStore) Record(ctx context.Context, id, path string) error {
	m, err := s.read()
	if err != nil {
		return err
	}
	if m[id] == path {
		return nil
	}
	m[id] = path
	if err := s.write(m); err != nil {
		return err
	}

	s.logger.Debug().Str("id", id).Str("path", path).Msg("recorded binding")
	return nil
}

func (s *FileStore) Remove(ctx context.Context, id string) error {
	m, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := m[id]; !ok {
		return nil
	}
	delete(m, id)
	return s.write(m)
}

func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	m, err := s.read()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(m))
	for id, p := range m {
		entries = append(entries, Entry{ID: id, Path: p})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (s *FileStore) Close() error {
	return nil
}

// read loads the map, creating an empty backing file when none exists
func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.ensure(); err != nil {
			return nil, err
		}
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]string{}, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if m == nil {
		// literal "null"
		m = map[string]string{}
	}
	return m, nil
}

func (s *FileStore) ensure() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	if err := os.WriteFile(s.path, nil, 0644); err != nil {
		return fmt.Errorf("failed to create registry: %w", err)
	}
	s.logger.Debug().Str("path", s.path).Msg("created empty registry")
	return nil
}

// write persists m through a temp file and rename
func (s *FileStore) write(m map[string]string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set registry permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}
