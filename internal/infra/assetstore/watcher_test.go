package assetstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, folder, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, folder+"|"+name)
	return nil
}

func (r *recordingInvalidator) seen(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == key {
			return true
		}
	}
	return false
}

func TestWatcherInvalidatesChangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeStatic(t, dir, "css/site.css", time.Unix(1700000000, 0))

	inv := &recordingInvalidator{}
	w, err := NewWatcher(inv, []string{dir}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "site.css"), []byte("body{color:red}"), 0o644))

	require.Eventually(t, func() bool {
		return inv.seen(dir + "|css/site.css")
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcherLocate(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(&recordingInvalidator{}, []string{dir}, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	folder, name, ok := w.locate(filepath.Join(dir, "js", "app.js"))
	require.True(t, ok)
	require.Equal(t, dir, folder)
	require.Equal(t, "js/app.js", name)

	_, _, ok = w.locate(filepath.Join(filepath.Dir(dir), "elsewhere.js"))
	require.False(t, ok)
	_, _, ok = w.locate(dir)
	require.False(t, ok)
}
