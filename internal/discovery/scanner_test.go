package discovery

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newScanner(roots ...string) *Scanner {
	return NewScanner(roots, []string{".ts"}, []string{"node_modules", ".git", "*.d.ts"}, zerolog.Nop())
}

func TestScanner_FindAtAnyDepth(t *testing.T) {
	depths := []int{0, 1, 5, 12}

	for _, depth := range depths {
		t.Run(strings.Repeat("d", depth+1), func(t *testing.T) {
			// Test: a single matching file is found regardless of nesting
			root := t.TempDir()
			parts := []string{root}
			for i := 0; i < depth; i++ {
				parts = append(parts, "lvl")
			}
			target := filepath.Join(append(parts, "Shop.ts")...)
			writeFile(t, target, "class Shop {\n//<PREFAB abc123>\n//</PREFAB>\n}")
			writeFile(t, filepath.Join(root, "Other.ts"), "class Other {}")

			got, err := newScanner(root).Find(context.Background(), "abc123")
			require.NoError(t, err)
			assert.Equal(t, target, got)
		})
	}
}

func TestScanner_LooseMatch(t *testing.T) {
	// Test: any mention of the id counts, not only a well-formed region
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.ts"), "// TODO bind abc123 here")

	got, err := newScanner(root).Find(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a.ts"), got)
}

func TestScanner_SkipsUnreadableFiles(t *testing.T) {
	// Test: a dangling symlink earlier in walk order does not abort the scan
	root := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.ts"), filepath.Join(root, "a.ts")))
	target := filepath.Join(root, "b.ts")
	writeFile(t, target, "//<PREFAB abc123>\n//</PREFAB>")

	got, err := newScanner(root).Find(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestScanner_NotFoundLeavesFilesUntouched(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "ui", "Shop.ts")
	writeFile(t, path, "class Shop {}")
	before, err := os.Stat(path)
	require.NoError(t, err)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	_, err = newScanner(root).Find(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrNotFound)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.Size(), after.Size())
	assert.Equal(t, old.Unix(), after.ModTime().Unix())
}

func TestScanner_FiltersAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.md"), "abc123")
	writeFile(t, filepath.Join(root, "types.d.ts"), "abc123")
	writeFile(t, filepath.Join(root, "node_modules", "lib", "x.ts"), "abc123")
	writeFile(t, filepath.Join(root, ".git", "y.ts"), "abc123")

	_, err := newScanner(root).Find(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrNotFound)

	writeFile(t, filepath.Join(root, "src", "z.ts"), "abc123")
	got, err := newScanner(root).Find(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "z.ts"), got)
}

func TestScanner_RootOrderAndMissingRoots(t *testing.T) {
	// Test: roots are searched in order and missing roots are skipped
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, filepath.Join(first, "A.ts"), "abc123")
	writeFile(t, filepath.Join(second, "B.ts"), "abc123")

	s := newScanner(filepath.Join(first, "does-not-exist"), second, first)
	got, err := s.Find(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(second, "B.ts"), got)
}

func TestScanner_LexicalOrderWithinRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "B.ts"), "abc123")
	writeFile(t, filepath.Join(root, "a", "A.ts"), "abc123")

	got, err := newScanner(root).Find(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "A.ts"), got)
}

func TestScanner_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A.ts"), "abc123")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(root).Find(ctx, "abc123")
	assert.ErrorIs(t, err, context.Canceled)
}
