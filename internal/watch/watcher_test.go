package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/prefabind/internal/binder"
	"github.com/okra-platform/prefabind/internal/manifest"
)

func TestFileWatcher_shouldWatch(t *testing.T) {
	tests := []struct {
		name    string
		exclude []string
		path    string
		want    bool
	}{
		{
			name: "manifest",
			path: "/project/Assets/ui/Shop.prefabind.yaml",
			want: true,
		},
		{
			name: "prefab itself",
			path: "/project/Assets/ui/Shop.prefab",
			want: false,
		},
		{
			name: "plain yaml",
			path: "/project/Assets/ui/settings.yaml",
			want: false,
		},
		{
			name:    "excluded backup",
			exclude: []string{"*~", ".#*"},
			path:    "/project/Assets/ui/.#Shop.prefabind.yaml",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw := &FileWatcher{
				suffixes: []string{manifest.Suffix},
				exclude:  tt.exclude,
			}

			assert.Equal(t, tt.want, fw.shouldWatch(tt.path))
		})
	}
}

func TestSettled(t *testing.T) {
	now := time.Now()
	pending := map[string]time.Time{
		"b":     now.Add(-time.Second),
		"a":     now.Add(-time.Second),
		"fresh": now,
	}

	assert.Equal(t, []string{"a", "b"}, settled(pending, now, 100*time.Millisecond))
}

func TestFileWatcher_Close(t *testing.T) {
	fw, err := NewFileWatcher([]string{manifest.Suffix}, nil, func(string) {}, zerolog.Nop())
	require.NoError(t, err)

	// Close should not error
	assert.NoError(t, fw.Close())

	// Double close should also be safe
	assert.NoError(t, fw.Close())
}

type recordingUpdater struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (u *recordingUpdater) Update(ctx context.Context, path string) (*binder.Result, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paths = append(u.paths, path)
	if u.err != nil {
		return nil, u.err
	}
	return &binder.Result{File: "/scripts/x.ts", Changed: true}, nil
}

func (u *recordingUpdater) seen() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.paths...)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunner_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	root := t.TempDir()
	nested := filepath.Join(root, "shop")
	require.NoError(t, os.MkdirAll(nested, 0755))

	updater := &recordingUpdater{}
	out := &syncBuffer{}
	r := NewRunner([]string{root}, []string{"node_modules"}, updater, out, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errChan := make(chan error, 1)
	go func() {
		errChan <- r.run(ctx, 20*time.Millisecond)
	}()

	// Give watcher time to start
	time.Sleep(100 * time.Millisecond)

	manifestPath := filepath.Join(nested, "Shop"+manifest.Suffix)
	require.NoError(t, os.WriteFile(manifestPath, []byte("asset: a.prefab\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "Shop.prefab"), []byte("x"), 0644))

	assert.Eventually(t, func() bool {
		return len(updater.seen()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	for _, p := range updater.seen() {
		assert.Equal(t, manifestPath, p)
	}
	assert.Contains(t, out.String(), "✅")

	cancel()
	assert.NoError(t, <-errChan)
}

func TestRunner_UpdateErrorsAreReported(t *testing.T) {
	out := &syncBuffer{}
	updater := &recordingUpdater{err: errors.New("boom")}
	r := NewRunner(nil, nil, updater, out, zerolog.Nop())

	r.handle(context.Background(), "/a"+manifest.Suffix)
	assert.Contains(t, out.String(), "❌")
	assert.Contains(t, out.String(), "boom")
}

func TestRunner_NoRoots(t *testing.T) {
	r := NewRunner([]string{filepath.Join(t.TempDir(), "missing")}, nil, &recordingUpdater{}, &syncBuffer{}, zerolog.Nop())
	assert.Error(t, r.Run(context.Background()))
}
