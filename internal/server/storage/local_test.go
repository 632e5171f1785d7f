package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	base := t.TempDir()
	s, err := NewLocalStore(filepath.Join(base, "uploads"), filepath.Join(base, "downloads"))
	require.NoError(t, err)
	return s
}

func TestLocalStore_SaveAndOpen(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	n, err := s.Save(ctx, "key-1.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.True(t, s.LiveExists("key-1.txt"))

	rc, err := s.Open("key-1.txt")
	require.NoError(t, err)
	defer rc.Close()

	got, err := os.ReadFile(s.LivePath("key-1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestLocalStore_SaveRefusesExistingKey(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "key", strings.NewReader("one"))
	require.NoError(t, err)

	_, err = s.Save(ctx, "key", strings.NewReader("two"))
	require.ErrorIs(t, err, common.ErrorStorageIO)
}

func TestLocalStore_OpenMissingKey(t *testing.T) {
	s := newLocalStore(t)
	_, err := s.Open("missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLocalStore_StageCopiesAndKeepsLive(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "key", strings.NewReader("payload"))
	require.NoError(t, err)

	staged, err := s.Stage(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, s.StagedPath("key"), staged)

	got, err := os.ReadFile(staged)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	assert.True(t, s.LiveExists("key"), "staging must not consume the live copy")
}

func TestLocalStore_StageMissingLiveFails(t *testing.T) {
	s := newLocalStore(t)
	_, err := s.Stage(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrorStorageIO)
}

func TestLocalStore_RemoveStagedIdempotent(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "key", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.Stage(ctx, "key")
	require.NoError(t, err)

	require.NoError(t, s.RemoveStaged("key"))
	require.NoError(t, s.RemoveStaged("key"), "missing staged copy is not an error")
}

func TestLocalStore_SaveHonorsContextCancellation(t *testing.T) {
	s := newLocalStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocked := make(chan struct{})
	r := readerFunc(func(p []byte) (int, error) {
		<-blocked
		return 0, nil
	})
	defer close(blocked)

	done := make(chan error, 1)
	go func() {
		_, err := s.Save(ctx, "stuck", r)
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, common.ErrorStorageIO)
	case <-time.After(2 * time.Second):
		t.Fatal("Save did not return after context cancellation")
	}
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
