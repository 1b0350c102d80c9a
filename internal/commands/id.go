package commands

import (
	"context"
	"fmt"

	"github.com/okra-platform/prefabind/internal/manifest"
)

// IDNew issues a fresh identifier for a context. Replacing an existing one
// unbinds every script tagged with it, so that needs force or confirmation.
func (c *Controller) IDNew(ctx context.Context, arg string, force bool) error {
	return c.withProject(ctx, func(ctx context.Context, p *project) error {
		path, err := manifestPath(p.cfg, arg)
		if err != nil {
			return err
		}

		m, err := manifest.Load(path)
		if err != nil {
			return err
		}

		if m.ID != "" && !force {
			ok, err := c.confirm().Confirm(
				"Replace identifier?",
				fmt.Sprintf("%s is bound as %s. Scripts tagged with it will need the new tag.", m.Asset, m.ID),
			)
			if err != nil {
				return fmt.Errorf("failed to confirm: %w", err)
			}
			if !ok {
				c.out().Println("Identifier unchanged.")
				return nil
			}
		}

		id, err := p.service.NewID(ctx, path, true)
		if err != nil {
			return err
		}

		c.out().Printf("🔑 New identifier for %s: %s\n", m.Asset, id)
		c.out().Println(p.service.Snippet(id))
		return nil
	})
}
