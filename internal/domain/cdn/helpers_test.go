package cdn

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync"
	"time"
)

type fakeSource struct {
	mu    sync.Mutex
	files map[string]time.Time
	calls int
	err   error
}

func newFakeSource() *fakeSource {
	return &fakeSource{files: make(map[string]time.Time)}
}

func (f *fakeSource) put(folder, name string, mtime time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[CacheKey(folder, name)] = mtime
}

func (f *fakeSource) ModTime(_ context.Context, folder, name string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return time.Time{}, f.err
	}
	mtime, ok := f.files[CacheKey(folder, name)]
	if !ok {
		return time.Time{}, fmt.Errorf("stat %s/%s: %w", folder, name, fs.ErrNotExist)
	}
	return mtime, nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	failGet bool
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]time.Time)}
}

func (c *mapCache) Get(_ context.Context, key string) (time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return time.Time{}, false, fmt.Errorf("cache down")
	}
	mtime, ok := c.entries[key]
	return mtime, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, mtime time.Time, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = mtime
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// blockingSource holds every lookup until release is closed, then reports
// the lookup context's error if it was cancelled meanwhile.
type blockingSource struct {
	mtime   time.Time
	started chan struct{}
	release chan struct{}
}

func newBlockingSource(mtime time.Time) *blockingSource {
	return &blockingSource{mtime: mtime, started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingSource) ModTime(ctx context.Context, _, _ string) (time.Time, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.release
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return b.mtime, nil
}
