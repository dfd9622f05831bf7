package mtimecache

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/cdnurl/internal/domain/cdn"
)

// ValkeyStore shares modification times between instances through a
// Valkey-compatible database. Values are Unix nanoseconds.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "cdnurl:mtime"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (time.Time, bool, error) {
	cmd := s.client.B().Get().Key(s.entryKey(key)).Build()
	nanos, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return time.Unix(0, nanos), true, nil
}

func (s *ValkeyStore) Set(ctx context.Context, key string, mtime time.Time, ttl time.Duration) error {
	builder := s.client.B().Set().Key(s.entryKey(key)).Value(fmt.Sprintf("%d", mtime.UnixNano()))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) Invalidate(ctx context.Context, key string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.entryKey(key)).Build()).Error()
}

func (s *ValkeyStore) entryKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

var _ cdn.ModTimeCache = (*ValkeyStore)(nil)
