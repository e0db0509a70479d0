package main

import (
	"fmt"

	"github.com/4thel00z/docrag/internal"
	"github.com/spf13/cobra"
)

func NewFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <url>...",
		Short: "Download documents into the documents folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			token, _ := cmd.Flags().GetString("token")

			p, err := a.pipeline(cmd, false)
			if err != nil {
				return err
			}

			fetcher := internal.NewFetcher(p.DocumentsPath(), token)
			for _, url := range args {
				path, err := fetcher.Fetch(cmd.Context(), url, force, func(written, total int64) {
					if total > 0 {
						fmt.Fprintf(cmd.ErrOrStderr(), "\r%s: %d%%", url, written*100/total)
					}
				})
				if err != nil {
					return fmt.Errorf("fetch %s: %w", url, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "\r")
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Download again even if the file exists")
	cmd.Flags().String("token", "", "Bearer token for the download")
	return cmd
}
