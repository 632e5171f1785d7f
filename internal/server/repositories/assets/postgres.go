package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// PostgresRepository implements the asset registry over a dbx.DBTX
// (*sql.DB or *sql.Tx). Point lookups and updates go through the
// content_hash primary key, so no operation rewrites the whole registry.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const assetColumns = `content_hash, storage_key, original_name, size_bytes, mime_type, uploaded_at, owner_email, state`

// Insert appends a new record. A live record with the same content hash
// makes the insert fail with common.ErrorConflict.
func (r *PostgresRepository) Insert(ctx context.Context, asset *models.Asset) error {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (content_hash) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		asset.ContentHash, asset.StorageKey, asset.OriginalName, asset.SizeBytes,
		asset.MimeType, asset.UploadedAt, asset.OwnerEmail, asset.State)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorConflict
	}
	return nil
}

// Find returns the record for an exact content hash.
func (r *PostgresRepository) Find(ctx context.Context, hash string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE content_hash = $1`

	asset := &models.Asset{}
	err := r.db.QueryRowContext(ctx, query, hash).Scan(
		&asset.ContentHash, &asset.StorageKey, &asset.OriginalName, &asset.SizeBytes,
		&asset.MimeType, &asset.UploadedAt, &asset.OwnerEmail, &asset.State)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return asset, nil
}

// List returns all live records in upload order.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Asset, error) {
	return r.Search(ctx, Filter{})
}

// Search applies AND-ed case-preserving substring filters. POSITION is used
// instead of LIKE so metacharacters in filters stay literal. The timestamp
// filter matches against the RFC 3339 UTC rendering of uploaded_at.
func (r *PostgresRepository) Search(ctx context.Context, filter Filter) ([]*models.Asset, error) {
	query := `
		SELECT ` + assetColumns + ` FROM assets
		WHERE ($1 = '' OR position($1 in original_name) > 0)
		  AND ($2 = '' OR position($2 in content_hash) > 0)
		  AND ($3 = '' OR position($3 in to_char(uploaded_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')) > 0)
		ORDER BY uploaded_at, content_hash
	`
	rows, err := r.db.QueryContext(ctx, query,
		filter.NameContains, filter.HashContains, filter.UploadedAtContains)
	if err != nil {
		return nil, fmt.Errorf("failed to search assets: %w", err)
	}
	defer rows.Close()

	result := []*models.Asset{}
	for rows.Next() {
		item := &models.Asset{}
		if err := rows.Scan(
			&item.ContentHash, &item.StorageKey, &item.OriginalName, &item.SizeBytes,
			&item.MimeType, &item.UploadedAt, &item.OwnerEmail, &item.State); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateState transitions the record per the state machine. The caller is
// expected to hold the per-hash lock; the check-then-update pair is not
// atomic on its own.
func (r *PostgresRepository) UpdateState(ctx context.Context, hash string, next models.AssetState) error {
	var state models.AssetState
	err := r.db.QueryRowContext(ctx, `SELECT state FROM assets WHERE content_hash = $1`, hash).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	if !state.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", common.ErrorInvalidTransition, state, next)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE assets SET state = $1 WHERE content_hash = $2`, next, hash); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Remove deletes the record entirely. Used only as the final step of
// retirement.
func (r *PostgresRepository) Remove(ctx context.Context, hash string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE content_hash = $1`, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
