// Package archive keeps full backtest results as JSON documents on the local
// filesystem or in an S3-compatible bucket.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/ThomasGit2000/trading-bot/internal/core"
)

// Backend is a flat key/value blob store. Keys use forward slashes.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get returns core.ErrNoData when key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// cleanKey rejects keys that would escape the archive root.
func cleanKey(key string) (string, error) {
	cleaned := path.Clean(strings.TrimPrefix(key, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", core.WrapError(core.ErrStorageFailed, fmt.Errorf("invalid archive key %q", key))
	}
	return cleaned, nil
}
