package commands

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/okra-platform/prefabind/internal/manifest"
)

type BindOptions struct {
	// Update regenerates the bound script after the edit
	Update bool
}

// BindAdd appends a binding to the context
func (c *Controller) BindAdd(ctx context.Context, arg, field, typ, subContext string, opts BindOptions) error {
	return c.editBindings(ctx, arg, opts, func(m *manifest.Manifest) (string, error) {
		if err := m.Add(field, typ, subContext); err != nil {
			return "", err
		}
		b := m.Bindings[len(m.Bindings)-1]
		return fmt.Sprintf("➕ %s: %s", b.Field, b.Type), nil
	})
}

// BindRemove deletes the binding named by ref, a field name or an index
func (c *Controller) BindRemove(ctx context.Context, arg, ref string, opts BindOptions) error {
	return c.editBindings(ctx, arg, opts, func(m *manifest.Manifest) (string, error) {
		i, err := bindingIndex(m, ref)
		if err != nil {
			return "", err
		}
		field := m.Bindings[i].Field
		if err := m.Remove(i); err != nil {
			return "", err
		}
		return fmt.Sprintf("➖ %s", field), nil
	})
}

// BindRename changes the field name of the binding named by ref
func (c *Controller) BindRename(ctx context.Context, arg, ref, field string, opts BindOptions) error {
	return c.editBindings(ctx, arg, opts, func(m *manifest.Manifest) (string, error) {
		i, err := bindingIndex(m, ref)
		if err != nil {
			return "", err
		}
		old := m.Bindings[i].Field
		if err := m.Rename(i, field); err != nil {
			return "", err
		}
		return fmt.Sprintf("✏️  %s → %s", old, field), nil
	})
}

// BindType changes the component type of the binding named by ref
func (c *Controller) BindType(ctx context.Context, arg, ref, typ string, opts BindOptions) error {
	return c.editBindings(ctx, arg, opts, func(m *manifest.Manifest) (string, error) {
		i, err := bindingIndex(m, ref)
		if err != nil {
			return "", err
		}
		if err := m.SetType(i, typ); err != nil {
			return "", err
		}
		return fmt.Sprintf("✏️  %s: %s", m.Bindings[i].Field, typ), nil
	})
}

// BindList prints the bindings of the context in order
func (c *Controller) BindList(ctx context.Context, arg string) error {
	return c.withProject(ctx, func(ctx context.Context, p *project) error {
		path, err := manifestPath(p.cfg, arg)
		if err != nil {
			return err
		}
		m, err := manifest.Load(path)
		if err != nil {
			return err
		}

		c.out().Printf("%s (%s)\n", m.Asset, valueOr(m.ID, "no identifier"))
		if len(m.Bindings) == 0 {
			c.out().Println("No bindings.")
			return nil
		}

		var buf bytes.Buffer
		t := table.NewWriter()
		t.SetOutputMirror(&buf)
		t.AppendHeader(table.Row{"#", "Field", "Type", "Context"})
		for i, b := range m.Bindings {
			t.AppendRow(table.Row{i, b.Field, b.Type, b.Context})
		}
		style := table.StyleLight
		style.Options.DrawBorder = false
		t.SetStyle(style)
		t.Render()
		c.out().Printf("%s", buf.String())
		return nil
	})
}

func (c *Controller) editBindings(ctx context.Context, arg string, opts BindOptions, edit func(m *manifest.Manifest) (string, error)) error {
	return c.withProject(ctx, func(ctx context.Context, p *project) error {
		path, err := manifestPath(p.cfg, arg)
		if err != nil {
			return err
		}
		m, err := manifest.Load(path)
		if err != nil {
			return err
		}

		msg, err := edit(m)
		if err != nil {
			return err
		}
		if err := m.Save(); err != nil {
			return err
		}
		c.out().Println(msg)

		if !opts.Update {
			return nil
		}
		return c.updateOne(ctx, p, path, UpdateOptions{})
	})
}

// bindingIndex accepts a position or a field name
func bindingIndex(m *manifest.Manifest, ref string) (int, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= len(m.Bindings) {
			return 0, fmt.Errorf("%w: %d", manifest.ErrIndexOutOfRange, i)
		}
		return i, nil
	}
	if i := m.IndexOf(ref); i >= 0 {
		return i, nil
	}
	return 0, fmt.Errorf("no binding named %q", ref)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
