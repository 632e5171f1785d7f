// Package storage handles the physical bytes of assets: the live uploads
// area, the staging area for retrieval copies, and the bin holding retired
// objects. Objects are addressed by storage key, which is unique per asset,
// so operations on different assets never contend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/filex"
)

// LocalStore keeps live bytes in uploadsDir and staged retrieval copies in
// downloadsDir.
type LocalStore struct {
	uploadsDir   string
	downloadsDir string
}

// NewLocalStore ensures both directories exist and returns a store over them.
func NewLocalStore(uploadsDir, downloadsDir string) (*LocalStore, error) {
	if err := filex.EnsureDir(uploadsDir); err != nil {
		return nil, err
	}
	if err := filex.EnsureDir(downloadsDir); err != nil {
		return nil, err
	}
	return &LocalStore{uploadsDir: uploadsDir, downloadsDir: downloadsDir}, nil
}

// LivePath returns the filesystem path of a live object.
func (s *LocalStore) LivePath(key string) string {
	return filepath.Join(s.uploadsDir, key)
}

// StagedPath returns the filesystem path of a staged retrieval copy.
func (s *LocalStore) StagedPath(key string) string {
	return filepath.Join(s.downloadsDir, key)
}

// runWithContext runs fn on its own goroutine and returns early when ctx is
// done, so a stuck filesystem cannot wedge the caller. The abandoned
// goroutine finishes (or fails) in the background.
func runWithContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", common.ErrorStorageIO, ctx.Err())
	}
}

// Save writes the live object for key from r and returns the byte count.
func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	var n int64
	err := runWithContext(ctx, func() error {
		f, err := os.OpenFile(s.LivePath(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o660)
		if err != nil {
			return err
		}
		n, err = io.Copy(f, r)
		if err != nil {
			_ = f.Close()
			_ = os.Remove(s.LivePath(key))
			return err
		}
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	})
	if err != nil {
		if errors.Is(err, common.ErrorStorageIO) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: saving %s: %v", common.ErrorStorageIO, key, err)
	}
	return n, nil
}

// Open returns a reader over the live object for key.
func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	f, err := os.Open(s.LivePath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: opening %s: %v", common.ErrorStorageIO, key, err)
	}
	return f, nil
}

// Stage copies the live object into the staging area and returns the staged
// path. The live copy is left untouched; staging the same key again simply
// rewrites the staged copy.
func (s *LocalStore) Stage(ctx context.Context, key string) (string, error) {
	staged := s.StagedPath(key)
	err := runWithContext(ctx, func() error {
		src, err := os.Open(s.LivePath(key))
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := os.Create(staged)
		if err != nil {
			return err
		}
		if _, err := io.Copy(dst, src); err != nil {
			_ = dst.Close()
			_ = os.Remove(staged)
			return err
		}
		return dst.Close()
	})
	if err != nil {
		if errors.Is(err, common.ErrorStorageIO) {
			return "", err
		}
		return "", fmt.Errorf("%w: staging %s: %v", common.ErrorStorageIO, key, err)
	}
	return staged, nil
}

// RemoveStaged deletes the staged copy for key if present. A missing staged
// copy is not an error.
func (s *LocalStore) RemoveStaged(key string) error {
	if err := os.Remove(s.StagedPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: removing staged %s: %v", common.ErrorStorageIO, key, err)
	}
	return nil
}

// RemoveLive deletes the live object for key.
func (s *LocalStore) RemoveLive(key string) error {
	if err := os.Remove(s.LivePath(key)); err != nil {
		return fmt.Errorf("%w: removing live %s: %v", common.ErrorStorageIO, key, err)
	}
	return nil
}

// LiveExists reports whether a live object is present for key.
func (s *LocalStore) LiveExists(key string) bool {
	_, err := os.Stat(s.LivePath(key))
	return err == nil
}
