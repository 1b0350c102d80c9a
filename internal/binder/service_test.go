package binder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/prefabind/internal/config"
	"github.com/okra-platform/prefabind/internal/manifest"
	"github.com/okra-platform/prefabind/internal/marker"
	"github.com/okra-platform/prefabind/internal/registry"
)

// project is a throwaway layout with manifests under root/Assets and
// scripts under root/scripts
type project struct {
	root    string
	cfg     *config.Config
	store   *registry.FileStore
	service *Service
}

func newProject(t *testing.T) *project {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default(root)
	cfg.CodeDirs = []string{"scripts"}
	cfg.Extensions = []string{".ts", ".cs"}

	store := registry.NewFileStore(cfg.RegistryPath(), zerolog.Nop())
	svc, err := NewService(cfg, store, zerolog.Nop())
	require.NoError(t, err)

	return &project{root: root, cfg: cfg, store: store, service: svc}
}

func (p *project) write(t *testing.T, rel, content string) string {
	t.Helper()
	full := filepath.Join(p.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	return full
}

func (p *project) read(t *testing.T, full string) string {
	t.Helper()
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	return string(data)
}

func (p *project) context(t *testing.T, asset string, bindings ...manifest.Binding) *manifest.Manifest {
	t.Helper()
	m, err := p.service.Init(context.Background(), asset)
	require.NoError(t, err)
	for _, b := range bindings {
		require.NoError(t, m.Add(b.Field, b.Type, b.Context))
	}
	require.NoError(t, m.Save())
	return m
}

func script(id string) string {
	return "import { UIWindow } from \"./base\";\n\n" +
		"export class ShopWindow extends UIWindow {\n" +
		"\t" + marker.Snippet(id) + "\n\n" +
		"\tpublic OnOpen(): void {\n\t\tconsole.log(\"keep me\");\n\t}\n}\n"
}

func TestService_UpdateDiscoversAndRecords(t *testing.T) {
	// Test: first update scans, records the path and rewrites the region
	ctx := context.Background()
	p := newProject(t)
	m := p.context(t, "Assets/res/ui/prefab/shop/ShopWindow.prefab",
		manifest.Binding{Field: "icon", Type: "UnityEngine.UI.Image"},
		manifest.Binding{Field: "label", Type: "UnityEngine.UI.Text"},
	)
	file := p.write(t, "scripts/shop/ShopWindow.ts", script(m.ID))

	res, err := p.service.Update(ctx, m.Path())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Discovered)
	assert.Equal(t, file, res.File)
	assert.Equal(t, "shop/ShopWindow", res.PrefabPath)
	assert.Equal(t, 2, res.Fields)

	out := p.read(t, file)
	assert.Contains(t, out, "\ticon!: CS.UnityEngine.UI.Image;\n")
	assert.Contains(t, out, "\tlabel!: CS.UnityEngine.UI.Text;\n")
	assert.Contains(t, out, "\t\treturn \"shop/ShopWindow\";\n")
	assert.Contains(t, out, "this.icon = this.GetComponent<CS.UnityEngine.UI.Image>(0);")
	assert.Contains(t, out, "this.label = this.GetComponent<CS.UnityEngine.UI.Text>(1);")
	assert.Contains(t, out, "\t}\n\t//</PREFAB>\n")
	assert.Contains(t, out, "console.log(\"keep me\");")
	assert.True(t, strings.HasPrefix(out, "import { UIWindow } from \"./base\";\n\nexport class ShopWindow extends UIWindow {\n\t//<PREFAB "+m.ID+">"))

	got, ok, err := p.store.Lookup(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, file, got)

	reloaded, err := manifest.Load(m.Path())
	require.NoError(t, err)
	assert.Equal(t, file, reloaded.BindFile)
	assert.Equal(t, "shop/ShopWindow", reloaded.PrefabPath)
}

func TestService_UpdateIsIdempotent(t *testing.T) {
	// Test: a second update with unchanged bindings produces identical bytes and no write
	ctx := context.Background()
	p := newProject(t)
	m := p.context(t, "Assets/Resources/Bag.prefab", manifest.Binding{Field: "grid", Type: "UnityEngine.UI.GridLayoutGroup"})
	file := p.write(t, "scripts/Bag.ts", script(m.ID))

	_, err := p.service.Update(ctx, m.Path())
	require.NoError(t, err)
	first := p.read(t, file)

	res, err := p.service.Update(ctx, m.Path())
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.Discovered)
	assert.Equal(t, first, p.read(t, file))
}

func TestService_UpdateNoTarget(t *testing.T) {
	// Test: with no script carrying the id the update fails and nothing is modified
	ctx := context.Background()
	p := newProject(t)
	m := p.context(t, "Assets/Resources/Bag.prefab")
	other := p.write(t, "scripts/Other.ts", script("someone-else"))
	before := p.read(t, other)

	_, err := p.service.Update(ctx, m.Path())
	assert.ErrorIs(t, err, ErrNoTarget)
	assert.Equal(t, before, p.read(t, other))

	entries, err := p.store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_UpdateStaleRegistry(t *testing.T) {
	ctx := context.Background()
	p := newProject(t)
	m := p.context(t, "Assets/Resources/Bag.prefab")
	file := p.write(t, "scripts/moved/Bag.ts", script(m.ID))

	t.Run("missing file falls back to discovery", func(t *testing.T) {
		require.NoError(t, p.store.Record(ctx, m.ID, filepath.Join(p.root, "scripts", "Gone.ts")))

		res, err := p.service.Update(ctx, m.Path())
		require.NoError(t, err)
		assert.True(t, res.Discovered)
		assert.Equal(t, file, res.File)

		got, _, err := p.store.Lookup(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, file, got)
	})

	t.Run("file without region falls back to discovery", func(t *testing.T) {
		wrong := p.write(t, "notes/Bag.ts", "class Bag {}")
		require.NoError(t, p.store.Record(ctx, m.ID, wrong))

		res, err := p.service.Update(ctx, m.Path())
		require.NoError(t, err)
		assert.True(t, res.Discovered)
		assert.Equal(t, file, res.File)
		assert.Equal(t, "class Bag {}", p.read(t, wrong))
	})

	t.Run("stale entry is dropped when nothing is found", func(t *testing.T) {
		require.NoError(t, os.Remove(file))
		require.NoError(t, p.store.Record(ctx, m.ID, file))

		_, err := p.service.Update(ctx, m.Path())
		assert.ErrorIs(t, err, ErrNoTarget)

		_, ok, err := p.store.Lookup(ctx, m.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestService_UpdateLooseMatchWithoutRegion(t *testing.T) {
	// Test: a discovered file that mentions the id without a region is not modified
	ctx := context.Background()
	p := newProject(t)
	m := p.context(t, "Assets/Resources/Bag.prefab")
	file := p.write(t, "scripts/Bag.ts", "// bind "+m.ID+" later\nclass Bag {}\n")

	_, err := p.service.Update(ctx, m.Path())
	assert.ErrorIs(t, err, marker.ErrNoRegion)
	assert.Equal(t, "// bind "+m.ID+" later\nclass Bag {}\n", p.read(t, file))
}

func TestService_UpdatePreconditions(t *testing.T) {
	ctx := context.Background()
	p := newProject(t)

	t.Run("no identifier", func(t *testing.T) {
		path := filepath.Join(p.root, "Assets", "Resources", "NoID"+manifest.Suffix)
		m := manifest.New(path, "Assets/Resources/NoID.prefab")
		require.NoError(t, m.Save())

		_, err := p.service.Update(ctx, path)
		assert.ErrorIs(t, err, ErrNoContext)
	})

	t.Run("asset outside prefab dirs", func(t *testing.T) {
		path := filepath.Join(p.root, "Assets", "Other", "X"+manifest.Suffix)
		m := manifest.New(path, "Assets/Other/X.prefab")
		m.ID = "abc123"
		require.NoError(t, m.Save())

		_, err := p.service.Update(ctx, path)
		assert.ErrorIs(t, err, ErrOutsideRoots)
	})
}

func TestService_MultipleContextsInOneFile(t *testing.T) {
	// Test: updating one context leaves a sibling region byte-identical
	ctx := context.Background()
	p := newProject(t)
	a := p.context(t, "Assets/Resources/A.prefab", manifest.Binding{Field: "a", Type: "A"})
	b := p.context(t, "Assets/Resources/B.prefab", manifest.Binding{Field: "b", Type: "B"})

	content := "class A extends UIControl {\n\t" + marker.Wrap(a.ID, "\n\told;\n\t") + "\n}\n" +
		"class B extends UIControl {\n\t" + marker.Wrap(b.ID, "\n\tuntouched;\n\t") + "\n}\n"
	file := p.write(t, "scripts/Pair.ts", content)

	_, err := p.service.Update(ctx, a.Path())
	require.NoError(t, err)

	out := p.read(t, file)
	assert.Contains(t, out, marker.Wrap(b.ID, "\n\tuntouched;\n\t"))
	assert.NotContains(t, out, "old;")
}

func TestService_UpdateUnclosedRegionLeavesFileAlone(t *testing.T) {
	// Test: a region missing its closing tag fails instead of eating the next region
	ctx := context.Background()
	p := newProject(t)
	a := p.context(t, "Assets/Resources/A.prefab", manifest.Binding{Field: "a", Type: "A"})
	b := p.context(t, "Assets/Resources/B.prefab", manifest.Binding{Field: "b", Type: "B"})

	content := "class A extends UIControl {\n\t" + marker.OpenTag(a.ID) + "\n\tstale;\n}\n" +
		"class B extends UIControl {\n\t" + marker.Wrap(b.ID, "\n\tkeep;\n\t") + "\n}\n"
	file := p.write(t, "scripts/Pair.ts", content)

	_, err := p.service.Update(ctx, a.Path())
	assert.ErrorIs(t, err, marker.ErrMalformedRegion)
	assert.Equal(t, content, p.read(t, file))
}

func TestService_SubContextTypeAndCSharp(t *testing.T) {
	ctx := context.Background()
	p := newProject(t)

	item := p.context(t, "Assets/Resources/Item.prefab")
	itemScript := p.write(t, "scripts/Item.ts", "export class ShopItem extends UIControl {\n\t"+marker.Snippet(item.ID)+"\n}\n")
	_, err := p.service.Update(ctx, item.Path())
	require.NoError(t, err)

	shop := p.context(t, "Assets/Resources/Shop.prefab",
		manifest.Binding{Field: "icon", Type: "UnityEngine.UI.Image"},
		manifest.Binding{Field: "item", Type: "XGames.UIFramework.UIContext", Context: "Item" + manifest.Suffix},
	)
	shopScript := p.write(t, "scripts/Shop.cs", "public class Shop : UIWindow\r\n{\r\n\t"+marker.Snippet(shop.ID)+"\r\n}\r\n")

	_, err = p.service.Update(ctx, shop.Path())
	require.NoError(t, err)

	out := p.read(t, shopScript)
	assert.Contains(t, out, "\tImage icon;\r\n")
	assert.Contains(t, out, "\tShopItem item;\r\n")
	assert.Contains(t, out, "this.item = this.BindChildControl<ShopItem>(1);\r\n")
	assert.NotContains(t, strings.ReplaceAll(out, "\r\n", ""), "\n")
	assert.FileExists(t, itemScript)
}

func TestService_NewID(t *testing.T) {
	ctx := context.Background()
	p := newProject(t)
	m := p.context(t, "Assets/Resources/Bag.prefab")
	p.write(t, "scripts/Bag.ts", script(m.ID))
	_, err := p.service.Update(ctx, m.Path())
	require.NoError(t, err)

	// Refusing to replace without force
	_, err = p.service.NewID(ctx, m.Path(), false)
	assert.ErrorIs(t, err, ErrIDExists)

	id, err := p.service.NewID(ctx, m.Path(), true)
	require.NoError(t, err)
	assert.NotEqual(t, m.ID, id)

	reloaded, err := manifest.Load(m.Path())
	require.NoError(t, err)
	assert.Equal(t, id, reloaded.ID)
	assert.Empty(t, reloaded.BindFile)

	// The old binding is invalidated
	_, ok, err := p.store.Lookup(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = p.service.Update(ctx, m.Path())
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestService_Init(t *testing.T) {
	ctx := context.Background()
	p := newProject(t)

	m, err := p.service.Init(ctx, "Assets/res/ui/prefab/bag/Bag.prefab")
	require.NoError(t, err)
	assert.Len(t, m.ID, 32)
	assert.Equal(t, filepath.Join(p.root, "Assets", "res", "ui", "prefab", "bag", "Bag"+manifest.Suffix), m.Path())

	_, err = p.service.Init(ctx, "Assets/res/ui/prefab/bag/Bag.prefab")
	assert.ErrorIs(t, err, ErrManifestExists)

	_, err = p.service.Init(ctx, "Assets/Scenes/Main.unity")
	assert.ErrorIs(t, err, ErrOutsideRoots)
}

func TestService_PrefabKey(t *testing.T) {
	p := newProject(t)
	p.cfg.PrefabDirs = []string{"Assets/res/ui/prefab/", "Assets/Resources"}

	tests := []struct {
		asset   string
		want    string
		wantErr bool
	}{
		{"Assets/res/ui/prefab/shop/ShopWindow.prefab", "shop/ShopWindow", false},
		{"Assets/Resources/Bag.prefab", "Bag", false},
		{"Assets/ResourcesExtra/Bag.prefab", "", true},
		{"Other/Bag.prefab", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.asset, func(t *testing.T) {
			got, err := p.service.PrefabKey(tt.asset)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutsideRoots)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Locate(t *testing.T) {
	ctx := context.Background()
	p := newProject(t)

	_, err := p.service.Locate(ctx, "abc123")
	assert.ErrorIs(t, err, ErrNoTarget)

	file := p.write(t, "scripts/deep/er/A.ts", script("abc123"))
	got, err := p.service.Locate(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, file, got)

	// Served from the registry afterwards
	recorded, ok, err := p.store.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, file, recorded)
}
