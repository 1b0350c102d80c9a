package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"

	"github.com/okra-platform/prefabind/internal/marker"
	"github.com/okra-platform/prefabind/internal/registry"
)

// Output formats accepted by registry list
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// registryRow is an entry annotated with whether its file still carries the tag
type registryRow struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Stale bool   `json:"stale"`
}

// RegistryList prints every recorded binding
func (c *Controller) RegistryList(ctx context.Context, format string) error {
	return c.withProject(ctx, func(ctx context.Context, p *project) error {
		entries, err := p.store.List(ctx)
		if err != nil {
			return err
		}

		data, err := encodeEntries(format, annotate(entries))
		if err != nil {
			return err
		}
		c.out().Printf("%s", data)
		return nil
	})
}

// RegistryRemove drops the entry for id
func (c *Controller) RegistryRemove(ctx context.Context, id string) error {
	return c.withProject(ctx, func(ctx context.Context, p *project) error {
		path, ok, err := p.store.Lookup(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			c.out().Printf("%s is not in the registry\n", id)
			return nil
		}
		if err := p.store.Remove(ctx, id); err != nil {
			return err
		}
		c.out().Printf("🗑️  Removed %s (%s)\n", id, path)
		return nil
	})
}

func annotate(entries []registry.Entry) []registryRow {
	rows := make([]registryRow, 0, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(e.Path)
		rows = append(rows, registryRow{
			ID:    e.ID,
			Path:  e.Path,
			Stale: err != nil || !marker.Contains(string(data), e.ID),
		})
	}
	return rows
}

func encodeEntries(format string, rows []registryRow) ([]byte, error) {
	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = encodeEntriesAsJSON(rows)
	case FormatYAML:
		data, err = yaml.Marshal(rows)
	case FormatTable, "":
		data, err = encodeEntriesAsTable(rows)
	default:
		err = fmt.Errorf("unknown output format: %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding registry as %q failed: %w", format, err)
	}
	return data, nil
}

func encodeEntriesAsJSON(rows []registryRow) ([]byte, error) {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func encodeEntriesAsTable(rows []registryRow) ([]byte, error) {
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.AppendHeader(table.Row{"ID", "Path", "Status"})
	for _, r := range rows {
		status := "ok"
		if r.Stale {
			status = "stale"
		}
		t.AppendRow(table.Row{r.ID, r.Path, status})
	}
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return buf.Bytes(), nil
}
