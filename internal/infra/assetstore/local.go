package assetstore

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yanqian/cdnurl/internal/domain/cdn"
)

// LocalSource reads modification times from the local filesystem.
type LocalSource struct{}

// NewLocalSource constructs a filesystem-backed source.
func NewLocalSource() *LocalSource {
	return &LocalSource{}
}

// ModTime stats folder/name. Directories count as missing.
func (s *LocalSource) ModTime(_ context.Context, folder, name string) (time.Time, error) {
	path, err := cdn.StaticPath(folder, name)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	if info.IsDir() {
		return time.Time{}, fmt.Errorf("%s is a directory: %w", path, os.ErrNotExist)
	}
	return info.ModTime(), nil
}

var _ cdn.ModTimeSource = (*LocalSource)(nil)
