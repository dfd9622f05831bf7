package cdn

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanqian/cdnurl/pkg/metrics"
)

// ModTimeSource resolves the modification time of name inside a static folder.
// Missing files must be reported with an error wrapping fs.ErrNotExist.
type ModTimeSource interface {
	ModTime(ctx context.Context, folder, name string) (time.Time, error)
}

// ModTimeCache stores resolved modification times.
type ModTimeCache interface {
	Get(ctx context.Context, key string) (time.Time, bool, error)
	Set(ctx context.Context, key string, mtime time.Time, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// CleanName normalizes a static filename to a slash-separated path that
// cannot climb out of its folder.
func CleanName(name string) (string, error) {
	cleaned := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("static file %q: %w", name, fs.ErrNotExist)
	}
	return cleaned, nil
}

// StaticPath joins folder and name on the local filesystem.
func StaticPath(folder, name string) (string, error) {
	if strings.TrimSpace(folder) == "" {
		return "", fmt.Errorf("static folder not configured: %w", fs.ErrNotExist)
	}
	cleaned, err := CleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(folder, filepath.FromSlash(cleaned)), nil
}

// CacheKey identifies a static file across folders.
func CacheKey(folder, name string) string {
	cleaned, err := CleanName(name)
	if err != nil {
		cleaned = name
	}
	return filepath.ToSlash(filepath.Clean(folder)) + "|" + cleaned
}

// DefaultLookupTimeout bounds a shared source lookup.
const DefaultLookupTimeout = 10 * time.Second

// CachedSource puts a cache in front of a ModTimeSource and collapses
// concurrent lookups for the same file.
type CachedSource struct {
	source        ModTimeSource
	cache         ModTimeCache
	ttl           time.Duration
	lookupTimeout time.Duration
	group         singleflight.Group
	logger        *slog.Logger
}

// NewCachedSource wraps source. A zero ttl caches until invalidated.
func NewCachedSource(source ModTimeSource, cache ModTimeCache, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{
		source:        source,
		cache:         cache,
		ttl:           ttl,
		lookupTimeout: DefaultLookupTimeout,
		logger:        logger.With("component", "cdn.cached_source"),
	}
}

// ModTime implements ModTimeSource.
func (s *CachedSource) ModTime(ctx context.Context, folder, name string) (time.Time, error) {
	key := CacheKey(folder, name)
	mtime, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("mtime cache read failed", "key", key, "error", err)
	}
	metrics.RecordCacheOutcome(ok)
	if ok {
		return mtime, nil
	}

	// The shared lookup outlives any single caller; each caller waits on its own ctx.
	ch := s.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.lookupTimeout)
		defer cancel()

		start := time.Now()
		mtime, err := s.source.ModTime(lookupCtx, folder, name)
		metrics.ObserveModTimeLookup(time.Since(start), err)
		if err != nil {
			return time.Time{}, err
		}
		if err := s.cache.Set(lookupCtx, key, mtime, s.ttl); err != nil {
			s.logger.Warn("mtime cache write failed", "key", key, "error", err)
		}
		return mtime, nil
	})
	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return time.Time{}, res.Err
		}
		return res.Val.(time.Time), nil
	}
}

// Invalidate drops the cached entry for name in folder.
func (s *CachedSource) Invalidate(ctx context.Context, folder, name string) error {
	return s.cache.Invalidate(ctx, CacheKey(folder, name))
}
