package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// InMemoryRepository is a mutex-guarded token store for tests and
// database-less deployments.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byToken map[string]*models.RefreshToken
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byToken: make(map[string]*models.RefreshToken)}
}

func (r *InMemoryRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byToken[token] = &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		Expires:   time.Now().Add(validity),
		CreatedAt: time.Now(),
	}
	return nil
}

func (r *InMemoryRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *rt
	return &c, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byToken, token)
	return nil
}
