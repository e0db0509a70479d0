package main

import (
	"github.com/4thel00z/docrag/internal"
	"github.com/spf13/cobra"
)

func NewIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [paths...]",
		Short: "Extract, chunk and embed documents",
		Long: `Ingest files or directories (the workspace documents folder by default) into
an in-memory index and report what was indexed. Unreadable documents are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			p, err := a.pipeline(cmd, true)
			if err != nil {
				return err
			}

			out, err := internal.NewIngestUseCase(p).Execute(cmd.Context(), internal.IngestInput{Paths: args})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, out)
			}
			printIngestReport(cmd.OutOrStdout(), out.Report)
			return nil
		},
	}
}
