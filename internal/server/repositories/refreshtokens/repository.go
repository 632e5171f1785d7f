// Package refreshtokens provides persistence for refresh tokens used in the
// server's authentication flow.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type Repository interface {
	// Create inserts a new refresh token for userID expiring at now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns the token row, or common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a token by its token string.
	Delete(ctx context.Context, token string) error
}
