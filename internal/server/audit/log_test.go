package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(hash string) models.AuditEvent {
	return models.AuditEvent{
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Action:      models.AuditActionDelete,
		StorageKey:  hash + ".bin",
		ContentHash: hash,
		FileName:    "a.txt",
		Status:      "Moved to bin",
		OwnerEmail:  "alice@example.com",
	}
}

func TestFileLog_AppendAndReadBack(t *testing.T) {
	log := NewFileLog(filepath.Join(t.TempDir(), "audit.log"))
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, sampleEvent("h1")))
	require.NoError(t, log.Append(ctx, sampleEvent("h2")))

	events, err := log.ReadAll()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "h1", events[0].ContentHash)
	assert.Equal(t, "h2", events[1].ContentHash)
	assert.Equal(t, models.AuditActionDelete, events[0].Action)
	assert.Equal(t, "a.txt", events[0].FileName)
}

func TestFileLog_EmptyLog(t *testing.T) {
	log := NewFileLog(filepath.Join(t.TempDir(), "audit.log"))
	events, err := log.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFileLog_ConcurrentAppendsKeepOneEventPerLine(t *testing.T) {
	log := NewFileLog(filepath.Join(t.TempDir(), "audit.log"))
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, log.Append(ctx, sampleEvent(fmt.Sprintf("h%02d", i))))
		}(i)
	}
	wg.Wait()

	events, err := log.ReadAll()
	require.NoError(t, err)
	assert.Len(t, events, n)

	seen := map[string]bool{}
	for _, ev := range events {
		seen[ev.ContentHash] = true
	}
	assert.Len(t, seen, n, "every append must land as its own entry")
}

func TestFileLog_AppendFailsOnUnwritablePath(t *testing.T) {
	log := NewFileLog(filepath.Join(t.TempDir(), "no-such-dir", "audit.log"))
	err := log.Append(context.Background(), sampleEvent("h"))
	require.Error(t, err)
}
