package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/google/uuid"
)

// InMemoryRepository is a mutex-guarded account store for tests and
// database-less deployments.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byEmail: make(map[string]*models.User)}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return nil, common.ErrorConflict
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	stored := *user
	r.byEmail[user.Email] = &stored
	return user, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *user
	return &c, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.byEmail {
		if user.ID == id {
			c := *user
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}
