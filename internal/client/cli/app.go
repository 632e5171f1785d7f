// Package cli implements the filekeeper command-line client on top of the
// api package. Commands are thin: they parse arguments, call the client and
// render the result.
package cli

import (
	"context"
	"os"

	"github.com/dmitrijs2005/filekeeper/internal/client/api"
	"github.com/dmitrijs2005/filekeeper/internal/client/config"
	"github.com/dmitrijs2005/filekeeper/internal/flagx"
)

type App struct {
	config *config.Config
	client *api.Client
}

func NewApp(cfg *config.Config) (*App, error) {
	client, err := api.New(cfg)
	if err != nil {
		return nil, err
	}
	return &App{config: cfg, client: client}, nil
}

// Run executes the CLI. The -c/-config flags were already consumed by the
// config loader, so they are stripped before cobra sees the arguments.
func (a *App) Run(ctx context.Context) error {
	root := a.newRootCmd()
	root.SetArgs(flagx.ExcludeArgs(os.Args[1:], []string{"-c", "-config"}))
	return root.ExecuteContext(ctx)
}
