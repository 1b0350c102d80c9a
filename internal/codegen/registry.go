package codegen

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Factory builds a generator for the given rendering options
type Factory func(opts Options) Generator

// Registry manages available code generators
type Registry struct {
	generators map[string]Factory
	extensions map[string]string
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Factory),
		extensions: make(map[string]string),
	}
}

// Register adds a generator factory under language and maps each extension to it
func (r *Registry) Register(language string, factory Factory, extensions ...string) {
	r.generators[language] = factory
	for _, ext := range extensions {
		r.extensions[strings.ToLower(ext)] = language
	}
}

// Get returns a generator for the specified language
func (r *Registry) Get(language string, opts Options) (Generator, error) {
	factory, exists := r.generators[language]
	if !exists {
		return nil, fmt.Errorf("unsupported language: %s", language)
	}

	return factory(opts), nil
}

// ForFile returns the generator that handles the extension of path
func (r *Registry) ForFile(path string, opts Options) (Generator, error) {
	ext := strings.ToLower(filepath.Ext(path))
	language, ok := r.extensions[ext]
	if !ok {
		return nil, fmt.Errorf("no generator for %q files: %s", ext, path)
	}
	return r.Get(language, opts)
}

// Languages returns a sorted list of supported languages
func (r *Registry) Languages() []string {
	languages := make([]string, 0, len(r.generators))
	for lang := range r.generators {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	return languages
}
