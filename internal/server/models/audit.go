package models

import "time"

// Audit action kinds.
const (
	AuditActionDelete = "DELETE"
)

// AuditEvent is one append-only lifecycle record. Events are never mutated
// or reordered after append.
type AuditEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Action      string    `json:"action"`
	StorageKey  string    `json:"storageKey"`
	ContentHash string    `json:"hash"`
	FileName    string    `json:"fileName"`
	Status      string    `json:"status"`
	OwnerEmail  string    `json:"ownerEmail"`
}
