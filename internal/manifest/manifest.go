// Package manifest reads and writes context manifests, the YAML files that
// describe one bound prefab: its identifier, asset path and ordered bindings.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"sigs.k8s.io/yaml"
)

// Suffix is the file name suffix of every context manifest
const Suffix = ".prefabind.yaml"

// DefaultType is the component assumed for a freshly added binding
const DefaultType = "UnityEngine.Transform"

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// typePattern accepts dotted names such as UnityEngine.UI.Image. Types are
// emitted verbatim into generated code.
var typePattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

// ErrIndexOutOfRange is returned by binding edits with a bad index
var ErrIndexOutOfRange = errors.New("binding index out of range")

// Binding pairs a generated field with the component it is bound to.
// Order matters: the generated binder looks components up by position.
type Binding struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	// Context points at another manifest when the component is itself a
	// bound context; it is relative to this manifest's directory.
	Context string `json:"context,omitempty"`
}

// Manifest is the persisted state of one bound context
type Manifest struct {
	ID         string    `json:"id,omitempty"`
	Asset      string    `json:"asset"`
	PrefabPath string    `json:"prefabPath,omitempty"`
	BindFile   string    `json:"bindFile,omitempty"`
	Bindings   []Binding `json:"bindings"`

	path string
}

// New creates an unsaved manifest for asset at path
func New(path, asset string) *Manifest {
	return &Manifest{
		Asset:    filepath.ToSlash(asset),
		Bindings: []Binding{},
		path:     path,
	}
}

// PathFor returns the conventional manifest location next to an asset
func PathFor(asset string) string {
	return strings.TrimSuffix(asset, filepath.Ext(asset)) + Suffix
}

// Load reads the manifest at path
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if m.Bindings == nil {
		m.Bindings = []Binding{}
	}
	m.path = path

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

// Path returns the file the manifest was loaded from
func (m *Manifest) Path() string {
	return m.path
}

// Dir returns the directory holding the manifest
func (m *Manifest) Dir() string {
	return filepath.Dir(m.path)
}

// Save writes the manifest back to its path
func (m *Manifest) Save() error {
	if m.path == "" {
		return errors.New("manifest has no path")
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Validate checks field names are usable identifiers and unique
func (m *Manifest) Validate() error {
	if m.Asset == "" {
		return errors.New("asset is required")
	}
	seen := make(map[string]int, len(m.Bindings))
	for i, b := range m.Bindings {
		if !identPattern.MatchString(b.Field) {
			return fmt.Errorf("binding %d: invalid field name %q", i, b.Field)
		}
		if b.Type == "" {
			return fmt.Errorf("binding %d: type is required", i)
		}
		if !typePattern.MatchString(b.Type) {
			return fmt.Errorf("binding %d: invalid type name %q", i, b.Type)
		}
		if prev, ok := seen[b.Field]; ok {
			return fmt.Errorf("binding %d: field %q already used by binding %d", i, b.Field, prev)
		}
		seen[b.Field] = i
	}
	return nil
}

// ContextPath resolves the sub-context manifest of b, empty when b has none
func (m *Manifest) ContextPath(b Binding) string {
	if b.Context == "" {
		return ""
	}
	if filepath.IsAbs(b.Context) {
		return b.Context
	}
	return filepath.Join(m.Dir(), b.Context)
}

// NewID returns a fresh identifier: a random (version 4) UUID as 32 hex
// characters without dashes
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Add appends a binding. An empty type defaults to DefaultType.
func (m *Manifest) Add(field, typ, context string) error {
	if typ == "" {
		typ = DefaultType
	}
	m.Bindings = append(m.Bindings, Binding{Field: field, Type: typ, Context: context})
	if err := m.Validate(); err != nil {
		m.Bindings = m.Bindings[:len(m.Bindings)-1]
		return err
	}
	return nil
}

// Remove deletes the binding at index, shifting later bindings down
func (m *Manifest) Remove(index int) error {
	if index < 0 || index >= len(m.Bindings) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	m.Bindings = append(m.Bindings[:index], m.Bindings[index+1:]...)
	return nil
}

// Rename changes the field name of the binding at index
func (m *Manifest) Rename(index int, field string) error {
	return m.edit(index, func(b *Binding) { b.Field = field })
}

// SetType changes the component type of the binding at index
func (m *Manifest) SetType(index int, typ string) error {
	return m.edit(index, func(b *Binding) { b.Type = typ })
}

func (m *Manifest) edit(index int, fn func(b *Binding)) error {
	if index < 0 || index >= len(m.Bindings) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	old := m.Bindings[index]
	fn(&m.Bindings[index])
	if err := m.Validate(); err != nil {
		m.Bindings[index] = old
		return err
	}
	return nil
}

// IndexOf returns the position of field, or -1
func (m *Manifest) IndexOf(field string) int {
	for i, b := range m.Bindings {
		if b.Field == field {
			return i
		}
	}
	return -1
}
