package storage

import "context"

// Bin relocates a retired asset's bytes out of live storage into a
// recoverable cold area keyed by storage key.
//
// Archive is a move, not a copy: once it returns nil, readers of live
// storage can no longer observe the bytes. An object already present in the
// bin under the same key makes Archive fail with common.ErrorConflict rather
// than silently overwriting; other failures map to common.ErrorStorageIO.
type Bin interface {
	Archive(ctx context.Context, key string) error
}
