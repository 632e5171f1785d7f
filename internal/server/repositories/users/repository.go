// Package users provides persistence for user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type Repository interface {
	// Create inserts a new account. Returns common.ErrorConflict when the
	// email is already registered.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the account for email, or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the account for id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)
}
