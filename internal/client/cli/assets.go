package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/client/api"
	"github.com/spf13/cobra"
)

func renderAssets(w io.Writer, assets []*api.Asset) {
	if len(assets) == 0 {
		fmt.Fprintln(w, "No files found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tHASH\tSIZE\tSTATE\tUPLOADED")
	for _, a := range assets {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			a.OriginalName, a.ContentHash, a.SizeBytes, a.State,
			a.UploadedAt.UTC().Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func (a *App) newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				asset, err := a.client.Upload(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("uploading %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (hash %s)\n", asset.OriginalName, asset.ContentHash)
			}
			return nil
		},
	}
}

func (a *App) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := a.client.List(cmd.Context())
			if err != nil {
				return err
			}
			renderAssets(cmd.OutOrStdout(), assets)
			return nil
		},
	}
}

func (a *App) newSearchCmd() *cobra.Command {
	var filename, hash, uploadedAt string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search stored files by name, hash or upload date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := a.client.Search(cmd.Context(), filename, hash, uploadedAt)
			if err != nil {
				return err
			}
			renderAssets(cmd.OutOrStdout(), assets)
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "filename", "", "substring of the original file name")
	cmd.Flags().StringVar(&hash, "hash", "", "substring of the content hash")
	cmd.Flags().StringVar(&uploadedAt, "uploaded", "", "substring of the upload timestamp (RFC 3339)")
	return cmd
}

func (a *App) newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <hash>",
		Short: "Download a file by content hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.client.Download(cmd.Context(), args[0], a.config.OutputDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", path)
			return nil
		},
	}
}

func (a *App) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <hash>",
		Short: "Move a file to the bin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.client.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}
