package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/okra-platform/prefabind/internal/config"
	"github.com/okra-platform/prefabind/internal/manifest"
)

// PrefabExt is the extension of the assets that can be bound
const PrefabExt = ".prefab"

type InitOptions struct {
	Asset string
}

type InitCommand struct {
	ctrl *Controller
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand(ctrl *Controller) *InitCommand {
	return &InitCommand{ctrl: ctrl}
}

// Init creates a context manifest for asset, prompting for it when empty
func (c *Controller) Init(ctx context.Context, asset string) error {
	cmd := NewInitCommand(c)
	if asset != "" {
		cmd.testOptions = &InitOptions{Asset: asset}
	}
	return cmd.Run(ctx)
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	return ic.ctrl.withProject(ctx, func(ctx context.Context, p *project) error {
		var options *InitOptions
		var err error

		if ic.testOptions != nil {
			options = ic.testOptions
		} else {
			options, err = ic.promptInitOptions(p, opts...)
			if err != nil {
				return fmt.Errorf("failed to get init options: %w", err)
			}
		}

		m, err := p.service.Init(ctx, projectRelative(p.cfg, options.Asset))
		if err != nil {
			return err
		}

		out := ic.ctrl.out()
		out.Printf("✅ Created %s\n", m.Path())
		out.Printf("🔑 Identifier: %s\n", m.ID)
		out.Println("Paste this into the class that should own the bindings:")
		out.Println(p.service.Snippet(m.ID))
		return nil
	})
}

func (ic *InitCommand) promptInitOptions(p *project, opts ...tea.ProgramOption) (*InitOptions, error) {
	var asset string

	form := ic.createInitForm(p, &asset)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	return &InitOptions{Asset: asset}, nil
}

func (ic *InitCommand) createInitForm(p *project, asset *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Prefab").
				Description("Asset path of the prefab to bind").
				Suggestions(unboundPrefabs(p.cfg)).
				Value(asset).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("prefab path cannot be empty")
					}
					rel := projectRelative(p.cfg, s)
					if _, err := p.service.PrefabKey(rel); err != nil {
						return err
					}
					if _, err := os.Stat(p.cfg.Resolve(manifest.PathFor(rel))); err == nil {
						return fmt.Errorf("%s is already bound", s)
					}
					return nil
				}),
		),
	)
}

// projectRelative rewrites an asset path given relative to the working
// directory into one relative to the project root
func projectRelative(cfg *config.Config, asset string) string {
	abs, err := filepath.Abs(asset)
	if err != nil {
		return asset
	}
	if _, err := os.Stat(abs); err != nil {
		return asset
	}
	rel, err := filepath.Rel(cfg.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return asset
	}
	return filepath.ToSlash(rel)
}

// unboundPrefabs lists prefabs under the prefab directories that have no manifest yet
func unboundPrefabs(cfg *config.Config) []string {
	var found []string
	for _, dir := range cfg.PrefabDirs {
		root := cfg.Resolve(dir)
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || filepath.Ext(path) != PrefabExt {
				return nil
			}
			if _, err := os.Stat(manifest.PathFor(path)); err == nil {
				return nil
			}
			if rel, err := filepath.Rel(cfg.Root, path); err == nil {
				found = append(found, filepath.ToSlash(rel))
			}
			return nil
		})
	}
	sort.Strings(found)
	return found
}
