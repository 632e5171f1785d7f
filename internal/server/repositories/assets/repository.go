// Package assets provides the asset registry: the single source of truth for
// all live asset records, keyed by content hash.
package assets

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// Filter holds optional substring filters for Search. Empty fields match
// everything; supplied fields are AND-ed. Matching is case-preserving.
type Filter struct {
	NameContains       string
	HashContains       string
	UploadedAtContains string
}

// Repository is the registry contract. Implementations must serialize
// mutations so that readers observe either the pre- or post-mutation state,
// never a partial write.
//
// Errors are reported via the common sentinels: Insert returns
// common.ErrorConflict when a live record with the same content hash exists;
// Find, UpdateState and Remove return common.ErrorNotFound for unknown
// hashes; UpdateState returns common.ErrorInvalidTransition when the state
// machine forbids the move.
type Repository interface {
	Insert(ctx context.Context, asset *models.Asset) error
	Find(ctx context.Context, hash string) (*models.Asset, error)
	List(ctx context.Context) ([]*models.Asset, error)
	Search(ctx context.Context, filter Filter) ([]*models.Asset, error)
	UpdateState(ctx context.Context, hash string, next models.AssetState) error
	Remove(ctx context.Context, hash string) error
}
