// Package blob stores raw content by content ID.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/filex"
)

type Backend interface {
	// Put stores data under cid. Overwriting the same cid is harmless: the
	// content is identical by construction.
	Put(ctx context.Context, cid string, data []byte) error

	// Get returns the content or common.ErrNotFound.
	Get(ctx context.Context, cid string) ([]byte, error)
}

// Local keeps blobs as flat files in a single directory. Content IDs are
// hex-based, so they are always safe file names.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	d, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &Local{dir: d}, nil
}

func (l *Local) Put(ctx context.Context, cid string, data []byte) error {
	if err := os.WriteFile(filepath.Join(l.dir, cid), data, 0o600); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", cid, err)
	}
	return nil
}

func (l *Local) Get(ctx context.Context, cid string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, cid))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: blob %s", common.ErrNotFound, cid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", cid, err)
	}
	return data, nil
}
