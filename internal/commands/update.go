package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/okra-platform/prefabind/internal/binder"
	"github.com/okra-platform/prefabind/internal/manifest"
)

type UpdateOptions struct {
	// Open launches the editor on each updated script
	Open bool
}

// Update regenerates the bindings of every manifest in args. A failure on
// one manifest does not stop the others.
func (c *Controller) Update(ctx context.Context, args []string, opts UpdateOptions) error {
	if len(args) == 0 {
		return errors.New("at least one manifest or asset path is required")
	}

	return c.withProject(ctx, func(ctx context.Context, p *project) error {
		var errs []error
		for _, arg := range args {
			if err := c.updateOne(ctx, p, arg, opts); err != nil {
				c.out().Printf("❌ %s: %v\n", arg, err)
				errs = append(errs, fmt.Errorf("%s: %w", arg, err))
			}
		}
		return errors.Join(errs...)
	})
}

func (c *Controller) updateOne(ctx context.Context, p *project, arg string, opts UpdateOptions) error {
	path, err := manifestPath(p.cfg, arg)
	if err != nil {
		return err
	}

	res, err := p.service.Update(ctx, path)
	if err != nil {
		return c.explain(p, path, err)
	}

	if res.Discovered {
		c.out().Printf("🔍 Found %s for %s\n", res.File, res.PrefabPath)
	}
	if res.Changed {
		c.out().Printf("✅ Bound %d field(s) in %s\n", res.Fields, res.File)
	} else {
		c.out().Printf("✨ %s is up to date\n", res.File)
	}

	if opts.Open {
		if err := c.launcher().Launch(p.cfg.Editor, res.File); err != nil {
			return err
		}
	}
	return nil
}

// Tag prints the empty region for a context, optionally copying it to the clipboard
func (c *Controller) Tag(ctx context.Context, arg string, copyToClipboard bool) error {
	return c.withProject(ctx, func(ctx context.Context, p *project) error {
		m, err := c.loadContext(p, arg)
		if err != nil {
			return err
		}

		snippet := p.service.Snippet(m.ID)
		c.out().Println(snippet)

		if copyToClipboard {
			if err := c.clipboard().WriteAll(snippet); err != nil {
				return fmt.Errorf("failed to copy to clipboard: %w", err)
			}
			c.out().Println("📋 Copied to clipboard")
		}
		return nil
	})
}

// Locate prints the script bound to a context
func (c *Controller) Locate(ctx context.Context, arg string) error {
	return c.withProject(ctx, func(ctx context.Context, p *project) error {
		file, err := c.locate(ctx, p, arg)
		if err != nil {
			return err
		}
		c.out().Println(file)
		return nil
	})
}

// Open launches the configured editor on the script bound to a context
func (c *Controller) Open(ctx context.Context, arg string) error {
	return c.withProject(ctx, func(ctx context.Context, p *project) error {
		file, err := c.locate(ctx, p, arg)
		if err != nil {
			return err
		}
		c.out().Printf("📝 Opening %s\n", file)
		return c.launcher().Launch(p.cfg.Editor, file)
	})
}

func (c *Controller) locate(ctx context.Context, p *project, arg string) (string, error) {
	m, err := c.loadContext(p, arg)
	if err != nil {
		return "", err
	}

	file, err := p.service.Locate(ctx, m.ID)
	if err != nil {
		return "", c.explain(p, m.Path(), err)
	}
	return file, nil
}

// loadContext loads a manifest that already has an identifier
func (c *Controller) loadContext(p *project, arg string) (*manifest.Manifest, error) {
	path, err := manifestPath(p.cfg, arg)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, fmt.Errorf("%w: %s", binder.ErrNoContext, path)
	}
	return m, nil
}
