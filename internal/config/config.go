package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the name of the project configuration file
const FileName = "prefabind.json"

// Config represents the prefabind.json configuration file
type Config struct {
	// PrefabDirs are asset path prefixes that prefabs must live under.
	// The matched prefix is stripped to form the prefab key.
	PrefabDirs []string       `json:"prefabDirs"`
	CodeDirs   []string       `json:"codeDirs"`
	Extensions []string       `json:"extensions"`
	Exclude    []string       `json:"exclude"`
	Editor     string         `json:"editor"`
	Registry   RegistryConfig `json:"registry"`
	Naming     NamingConfig   `json:"naming"`

	// Root is the directory holding prefabind.json. Not serialized.
	Root string `json:"-"`
}

// RegistryConfig selects the registry backend
type RegistryConfig struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// NamingConfig holds the names emitted into generated code
type NamingConfig struct {
	GetPath          string   `json:"getPath"`
	BindComponents   string   `json:"bindComponents"`
	GetComponent     string   `json:"getComponent"`
	BindChildControl string   `json:"bindChildControl"`
	BaseClasses      []string `json:"baseClasses"`
}

// Registry backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Default returns a config with every default applied and root as project root
func Default(root string) *Config {
	cfg := &Config{Root: root}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads prefabind.json from the current directory or a parent directory
func LoadConfig() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	return loadConfigFromDir(dir)
}

// LoadConfigFromPath loads the configuration from a specific path
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	config.Root = root
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if len(c.PrefabDirs) == 0 {
		c.PrefabDirs = []string{"Assets/res/ui/prefab/", "Assets/Resources/"}
	}
	if len(c.CodeDirs) == 0 {
		c.CodeDirs = []string{"../gamelua/ts/ui/"}
	}
	if len(c.Extensions) == 0 {
		c.Extensions = []string{".ts"}
	}
	if len(c.Exclude) == 0 {
		c.Exclude = []string{"node_modules", ".git", "*.d.ts"}
	}
	if c.Editor == "" {
		c.Editor = "code"
	}
	if c.Registry.Backend == "" {
		c.Registry.Backend = BackendJSON
	}
	if c.Registry.Path == "" {
		switch c.Registry.Backend {
		case BackendSQLite:
			c.Registry.Path = ".prefabind/registry.db"
		default:
			c.Registry.Path = ".prefabind/registry.json"
		}
	}

	n := &c.Naming
	if n.GetPath == "" {
		n.GetPath = "GetPrefabPath"
	}
	if n.BindComponents == "" {
		n.BindComponents = "BindComponents"
	}
	if n.GetComponent == "" {
		n.GetComponent = "GetComponent"
	}
	if n.BindChildControl == "" {
		n.BindChildControl = "BindChildControl"
	}
	if len(n.BaseClasses) == 0 {
		n.BaseClasses = []string{"UIWindow", "UIControl"}
	}
}

// Validate checks values that have no sensible default
func (c *Config) Validate() error {
	switch c.Registry.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unsupported registry backend: %s (supported: json, sqlite)", c.Registry.Backend)
	}
	for _, ext := range c.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("invalid extension %q: must start with a dot", ext)
		}
	}
	return nil
}

// Resolve makes p absolute against the project root
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Root, p)
}

// CodeRoots returns the absolute discovery roots
func (c *Config) CodeRoots() []string {
	roots := make([]string, 0, len(c.CodeDirs))
	for _, dir := range c.CodeDirs {
		roots = append(roots, c.Resolve(dir))
	}
	return roots
}

// RegistryPath returns the absolute path of the registry backing store
func (c *Config) RegistryPath() string {
	return c.Resolve(c.Registry.Path)
}

// loadConfigFromDir searches for prefabind.json in the given directory and its parents.
// When none exists the defaults are returned rooted at startDir.
func loadConfigFromDir(startDir string) (*Config, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return LoadConfigFromPath(configPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return Default(startDir), nil
}
