package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"context"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/filex"
)

// FSBin keeps retired objects in a directory next to live storage. The move
// is a single rename, so live readers see the object either fully present or
// fully gone.
type FSBin struct {
	live   *LocalStore
	binDir string
}

// NewFSBin ensures binDir exists and returns a bin over it.
func NewFSBin(live *LocalStore, binDir string) (*FSBin, error) {
	if err := filex.EnsureDir(binDir); err != nil {
		return nil, err
	}
	return &FSBin{live: live, binDir: binDir}, nil
}

// BinPath returns the filesystem path of an archived object.
func (b *FSBin) BinPath(key string) string {
	return filepath.Join(b.binDir, key)
}

func (b *FSBin) Archive(ctx context.Context, key string) error {
	dest := b.BinPath(key)

	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("%w: bin already holds %s", common.ErrorConflict, key)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: probing bin for %s: %v", common.ErrorStorageIO, key, err)
	}

	err := runWithContext(ctx, func() error {
		return os.Rename(b.live.LivePath(key), dest)
	})
	if err != nil {
		if errors.Is(err, common.ErrorStorageIO) {
			return err
		}
		return fmt.Errorf("%w: archiving %s: %v", common.ErrorStorageIO, key, err)
	}
	return nil
}
