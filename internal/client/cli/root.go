package cli

import (
	"github.com/dmitrijs2005/filekeeper/internal/client/api"
	"github.com/spf13/cobra"
)

func (a *App) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fkeeper",
		Short:         "FileKeeper - content-addressed file storage client",
		Long:          "FileKeeper stores files by content hash, tracks their lifecycle and moves deleted files to a recoverable bin.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags may have changed the endpoint or session path; rebuild
			// the client after parsing.
			client, err := api.New(a.config)
			if err != nil {
				return err
			}
			a.client = client
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.config.ServerEndpointAddr, "server", "a", a.config.ServerEndpointAddr, "base URL of the filekeeper server")
	pf.StringVar(&a.config.SessionPath, "session", a.config.SessionPath, "path of the cached session file")
	pf.StringVarP(&a.config.OutputDir, "output", "o", a.config.OutputDir, "directory for downloaded files")

	root.AddCommand(
		a.newRegisterCmd(),
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newRefreshCmd(),
		a.newUploadCmd(),
		a.newListCmd(),
		a.newSearchCmd(),
		a.newDownloadCmd(),
		a.newDeleteCmd(),
	)

	return root
}
