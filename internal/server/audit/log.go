// Package audit provides the append-only lifecycle event log kept for
// compliance and traceability.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// Log records lifecycle events. Entries are never mutated or reordered;
// readers consume the log as a sequential stream.
type Log interface {
	Append(ctx context.Context, event models.AuditEvent) error
}

// FileLog appends events as one JSON document per line. Each append opens
// the file with O_APPEND and syncs before returning, so a crash can lose at
// most the entry being written, never corrupt earlier ones.
type FileLog struct {
	mu   sync.Mutex
	path string
}

// NewFileLog returns a log appending to path. The file is created on first
// append.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

func (l *FileLog) Append(ctx context.Context, event models.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o660)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("appending audit event: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing audit log: %w", err)
	}
	return nil
}

// ReadAll parses every entry currently in the log, oldest first. Intended
// for tests and operational tooling, not the request path.
func (l *FileLog) ReadAll() ([]models.AuditEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	var events []models.AuditEvent
	start := 0
	for i, b := range data {
		if b != '\n' {
			continue
		}
		line := data[start:i]
		start = i + 1
		if len(line) == 0 {
			continue
		}
		var ev models.AuditEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("parsing audit entry: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}
