package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/assets"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/users"
)

// InMemoryRepositoryManager vends singleton in-memory repositories. The
// asset registry may be file-backed so it survives restarts without a
// database; accounts and tokens are volatile.
type InMemoryRepositoryManager struct {
	assets        assets.Repository
	users         users.Repository
	refreshTokens refreshtokens.Repository
}

// NewInMemoryRepositoryManager constructs a database-less manager. When
// registrySnapshotPath is non-empty, the asset registry persists itself to
// that JSON snapshot.
func NewInMemoryRepositoryManager(registrySnapshotPath string) (RepositoryManager, error) {
	var assetRepo assets.Repository
	if registrySnapshotPath != "" {
		repo, err := assets.NewFileBackedRepository(registrySnapshotPath)
		if err != nil {
			return nil, err
		}
		assetRepo = repo
	} else {
		assetRepo = assets.NewInMemoryRepository()
	}

	return &InMemoryRepositoryManager{
		assets:        assetRepo,
		users:         users.NewInMemoryRepository(),
		refreshTokens: refreshtokens.NewInMemoryRepository(),
	}, nil
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Assets(db dbx.DBTX) assets.Repository {
	return m.assets
}

func (m *InMemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}
