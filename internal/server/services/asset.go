// Package services contains server-side business logic. This file implements
// AssetService, which drives the asset lifecycle: ingest, retrieval staging,
// and the staged deletion workflow ending in the bin.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/digest"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/audit"
	sc "github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/notify"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/assets"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filekeeper/internal/server/storage"
	"github.com/google/uuid"
	"github.com/im7mortal/kmutex"
)

// AssetService coordinates the registry, the byte stores and the deletion
// side effects. All lifecycle mutations for one content hash run under a
// per-hash lock, so concurrent operations on the same asset serialize while
// different assets proceed in parallel.
type AssetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	store       *storage.LocalStore
	bin         storage.Bin
	audit       audit.Log
	dispatcher  *notify.Dispatcher
	logger      logging.Logger

	locks *kmutex.Kmutex
	now   func() time.Time
}

// NewAssetService wires the lifecycle engine together.
func NewAssetService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config,
	store *storage.LocalStore, bin storage.Bin, auditLog audit.Log,
	dispatcher *notify.Dispatcher, logger logging.Logger) *AssetService {
	return &AssetService{
		db:          db,
		repomanager: m,
		config:      cfg,
		store:       store,
		bin:         bin,
		audit:       auditLog,
		dispatcher:  dispatcher,
		logger:      logger.With("module", "assets"),
		locks:       kmutex.New(),
		now:         time.Now,
	}
}

// NewStorageKey returns a fresh physical object name for an upload. The key
// carries the original extension so binned objects stay recognizable, but is
// otherwise independent of the user-supplied filename.
func NewStorageKey(originalName string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(originalName))
}

// Ingest stores the payload, computes its content hash and registers the
// asset in state active. A payload whose hash is already registered is
// rejected with common.ErrorConflict and leaves no bytes behind. Empty
// payloads, owners and filenames are rejected with common.ErrorValidation.
func (s *AssetService) Ingest(ctx context.Context, ownerEmail, originalName, mimeType string, r io.Reader) (*models.Asset, error) {
	if ownerEmail == "" {
		return nil, fmt.Errorf("%w: owner email is required", common.ErrorValidation)
	}
	if originalName == "" {
		return nil, fmt.Errorf("%w: file name is required", common.ErrorValidation)
	}

	key := NewStorageKey(originalName)

	saveCtx, cancel := context.WithTimeout(ctx, s.config.MoveTimeout)
	defer cancel()

	size, err := s.store.Save(saveCtx, key, r)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		_ = s.store.RemoveLive(key)
		return nil, fmt.Errorf("%w: empty payload", common.ErrorValidation)
	}

	// The payload just hit disk; hash it from there so large uploads are
	// never buffered in memory.
	f, err := s.store.Open(key)
	if err != nil {
		_ = s.store.RemoveLive(key)
		return nil, err
	}
	hash, err := digest.Reader(f)
	_ = f.Close()
	if err != nil {
		_ = s.store.RemoveLive(key)
		return nil, fmt.Errorf("%w: hashing %s: %v", common.ErrorStorageIO, originalName, err)
	}

	s.locks.Lock(hash)
	defer s.locks.Unlock(hash)

	asset := &models.Asset{
		ContentHash:  hash,
		StorageKey:   key,
		OriginalName: originalName,
		SizeBytes:    size,
		MimeType:     mimeType,
		UploadedAt:   s.now().UTC(),
		OwnerEmail:   ownerEmail,
		State:        models.StateActive,
	}

	repo := s.repomanager.Assets(s.db)
	if err := repo.Insert(ctx, asset); err != nil {
		_ = s.store.RemoveLive(key)
		if errors.Is(err, common.ErrorConflict) {
			return nil, fmt.Errorf("%w: content already stored under hash %s", common.ErrorConflict, hash)
		}
		return nil, err
	}

	s.logger.Info(ctx, "asset ingested", "hash", hash, "key", key, "size", size, "owner", ownerEmail)
	return asset, nil
}

// Find returns the registered asset for hash, or common.ErrorNotFound.
func (s *AssetService) Find(ctx context.Context, hash string) (*models.Asset, error) {
	return s.repomanager.Assets(s.db).Find(ctx, hash)
}

// List returns every registered asset in insertion order.
func (s *AssetService) List(ctx context.Context) ([]*models.Asset, error) {
	return s.repomanager.Assets(s.db).List(ctx)
}

// Search returns assets matching the filter; an empty result is not an error.
func (s *AssetService) Search(ctx context.Context, filter assets.Filter) ([]*models.Asset, error) {
	return s.repomanager.Assets(s.db).Search(ctx, filter)
}

// Retrieve stages a copy of the asset's bytes for download and marks the
// asset downloaded. Repeated retrievals restage and keep the state; the live
// copy is never touched. On a staging failure the state is left unchanged.
// It returns the asset (post-transition) and the staged file path.
func (s *AssetService) Retrieve(ctx context.Context, hash string) (*models.Asset, string, error) {
	s.locks.Lock(hash)
	defer s.locks.Unlock(hash)

	repo := s.repomanager.Assets(s.db)

	asset, err := repo.Find(ctx, hash)
	if err != nil {
		return nil, "", err
	}

	stageCtx, cancel := context.WithTimeout(ctx, s.config.MoveTimeout)
	defer cancel()

	staged, err := s.store.Stage(stageCtx, asset.StorageKey)
	if err != nil {
		return nil, "", err
	}

	if err := repo.UpdateState(ctx, hash, models.StateDownloaded); err != nil {
		return nil, "", err
	}
	asset.State = models.StateDownloaded

	s.logger.Info(ctx, "asset staged for download", "hash", hash, "key", asset.StorageKey)
	return asset, staged, nil
}

// Delete retires a downloaded asset: the live bytes move to the bin, the
// staged copy is cleaned up, the deletion is audited, the owner notification
// is dispatched, and the record leaves the registry.
//
// Order matters. The bin move runs first and any failure aborts the whole
// operation with no visible change. Staged-copy cleanup and the audit append
// are best-effort: their failures are logged and never roll back a completed
// move. The notification is fire-and-forget.
func (s *AssetService) Delete(ctx context.Context, hash string) (*models.Asset, error) {
	s.locks.Lock(hash)
	defer s.locks.Unlock(hash)

	repo := s.repomanager.Assets(s.db)

	asset, err := repo.Find(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !asset.State.CanTransition(models.StateRetired) {
		return nil, fmt.Errorf("%w: cannot retire asset in state %q, download it first",
			common.ErrorInvalidTransition, asset.State)
	}

	moveCtx, cancel := context.WithTimeout(ctx, s.config.MoveTimeout)
	defer cancel()

	if err := s.bin.Archive(moveCtx, asset.StorageKey); err != nil {
		return nil, err
	}

	if err := s.store.RemoveStaged(asset.StorageKey); err != nil {
		s.logger.Warn(ctx, "staged copy cleanup failed", "hash", hash, "error", err)
	}

	if err := s.audit.Append(ctx, models.AuditEvent{
		Timestamp:   s.now().UTC(),
		Action:      models.AuditActionDelete,
		StorageKey:  asset.StorageKey,
		ContentHash: asset.ContentHash,
		FileName:    asset.OriginalName,
		Status:      "Moved to bin",
		OwnerEmail:  asset.OwnerEmail,
	}); err != nil {
		s.logger.Warn(ctx, "audit append failed", "hash", hash, "error", err)
	}

	s.dispatcher.Dispatch(asset.OwnerEmail, asset.OriginalName, s.now().Add(s.config.PurgeAfter))

	if err := repo.Remove(ctx, hash); err != nil {
		// The bytes are already in the bin; surface the inconsistency
		// instead of pretending the delete never happened.
		s.logger.Error(ctx, "registry remove failed after bin move", "hash", hash, "error", err)
		return nil, err
	}

	asset.State = models.StateRetired
	s.logger.Info(ctx, "asset retired", "hash", hash, "key", asset.StorageKey, "owner", asset.OwnerEmail)
	return asset, nil
}
