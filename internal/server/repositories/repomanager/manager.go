// Package repomanager wires repository implementations together behind one
// factory, so services stay agnostic of the storage backend.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/assets"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Assets(db dbx.DBTX) assets.Repository
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
