package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/filex"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// InMemoryRepository is a mutex-guarded registry holding all records in
// memory, optionally backed by an atomically rewritten JSON snapshot.
// Mutations take the write lock for their full duration, so at most one is
// in flight and readers see either the pre- or post-mutation registry.
//
// When a snapshot path is set, every successful mutation persists the whole
// registry via a temp-file-plus-rename write; if persisting fails the
// in-memory change is rolled back and the error is returned, keeping memory
// and disk consistent.
type InMemoryRepository struct {
	mu           sync.RWMutex
	byHash       map[string]*models.Asset
	order        []string
	snapshotPath string
}

// NewInMemoryRepository constructs a volatile registry, useful for tests.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byHash: make(map[string]*models.Asset)}
}

// NewFileBackedRepository constructs a registry persisted to a JSON snapshot
// at path, loading existing records if the file is present.
func NewFileBackedRepository(path string) (*InMemoryRepository, error) {
	r := &InMemoryRepository{
		byHash:       make(map[string]*models.Asset),
		snapshotPath: path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("reading registry snapshot: %w", err)
	}

	var records []*models.Asset
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing registry snapshot: %w", err)
	}
	for _, a := range records {
		r.byHash[a.ContentHash] = a
		r.order = append(r.order, a.ContentHash)
	}
	return r, nil
}

func cloneAsset(a *models.Asset) *models.Asset {
	c := *a
	return &c
}

// persistLocked writes the full registry snapshot. Caller holds the write lock.
func (r *InMemoryRepository) persistLocked() error {
	if r.snapshotPath == "" {
		return nil
	}

	records := make([]*models.Asset, 0, len(r.order))
	for _, hash := range r.order {
		records = append(records, r.byHash[hash])
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry snapshot: %w", err)
	}
	if err := filex.AtomicWriteFile(r.snapshotPath, data, 0o660); err != nil {
		return fmt.Errorf("writing registry snapshot: %w", err)
	}
	return nil
}

func (r *InMemoryRepository) Insert(ctx context.Context, asset *models.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHash[asset.ContentHash]; exists {
		return common.ErrorConflict
	}

	r.byHash[asset.ContentHash] = cloneAsset(asset)
	r.order = append(r.order, asset.ContentHash)

	if err := r.persistLocked(); err != nil {
		delete(r.byHash, asset.ContentHash)
		r.order = r.order[:len(r.order)-1]
		return err
	}
	return nil
}

func (r *InMemoryRepository) Find(ctx context.Context, hash string) (*models.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.byHash[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneAsset(asset), nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*models.Asset, error) {
	return r.Search(ctx, Filter{})
}

func (r *InMemoryRepository) Search(ctx context.Context, filter Filter) ([]*models.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.Asset{}
	for _, hash := range r.order {
		asset := r.byHash[hash]
		if filter.NameContains != "" && !strings.Contains(asset.OriginalName, filter.NameContains) {
			continue
		}
		if filter.HashContains != "" && !strings.Contains(asset.ContentHash, filter.HashContains) {
			continue
		}
		if filter.UploadedAtContains != "" {
			stamp := asset.UploadedAt.UTC().Format(time.RFC3339)
			if !strings.Contains(stamp, filter.UploadedAtContains) {
				continue
			}
		}
		result = append(result, cloneAsset(asset))
	}
	return result, nil
}

func (r *InMemoryRepository) UpdateState(ctx context.Context, hash string, next models.AssetState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.byHash[hash]
	if !ok {
		return common.ErrorNotFound
	}
	if !asset.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", common.ErrorInvalidTransition, asset.State, next)
	}

	prev := asset.State
	asset.State = next

	if err := r.persistLocked(); err != nil {
		asset.State = prev
		return err
	}
	return nil
}

func (r *InMemoryRepository) Remove(ctx context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.byHash[hash]
	if !ok {
		return common.ErrorNotFound
	}

	idx := -1
	for i, h := range r.order {
		if h == hash {
			idx = i
			break
		}
	}

	delete(r.byHash, hash)
	r.order = append(r.order[:idx], r.order[idx+1:]...)

	if err := r.persistLocked(); err != nil {
		r.byHash[hash] = asset
		r.order = append(r.order, "")
		copy(r.order[idx+1:], r.order[idx:])
		r.order[idx] = hash
		return err
	}
	return nil
}
