// Package models defines server-side data models persisted in the asset
// registry and the database.
package models

import "time"

// AssetState is the lifecycle state of an asset.
type AssetState string

const (
	// StateActive is the initial state, set at ingest.
	StateActive AssetState = "active"
	// StateDownloaded is set on the first successful retrieval and kept on
	// subsequent retrievals.
	StateDownloaded AssetState = "downloaded"
	// StateRetired is terminal: the record leaves the registry and the bytes
	// move to the bin. It never appears in a stored record; it exists for
	// audit entries and transition checks.
	StateRetired AssetState = "retired"
)

// CanTransition reports whether the state machine allows moving from s to
// next. Downloaded is re-enterable so repeated retrievals are idempotent.
func (s AssetState) CanTransition(next AssetState) bool {
	switch next {
	case StateDownloaded:
		return s == StateActive || s == StateDownloaded
	case StateRetired:
		return s == StateDownloaded
	default:
		return false
	}
}

// Live reports whether an asset in this state has bytes in live storage.
func (s AssetState) Live() bool {
	return s == StateActive || s == StateDownloaded
}

// Asset describes one uploaded file version. ContentHash is the primary
// identity key; StorageKey names the physical object and is independent of
// the original filename. All fields except State are immutable after ingest.
type Asset struct {
	ContentHash  string     `json:"contentHash"`
	StorageKey   string     `json:"storageKey"`
	OriginalName string     `json:"originalName"`
	SizeBytes    int64      `json:"sizeBytes"`
	MimeType     string     `json:"mimeType"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	OwnerEmail   string     `json:"ownerEmail"`
	State        AssetState `json:"state"`
}
