package main

import (
	"fmt"
	"strings"

	"github.com/4thel00z/docrag/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the fragments most similar to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("number")
			paths, _ := cmd.Flags().GetStringSlice("path")
			asJSON, _ := cmd.Flags().GetBool("json")

			p, err := a.pipeline(cmd, true)
			if err != nil {
				return err
			}

			out, err := internal.NewSearchUseCase(p).Execute(cmd.Context(), internal.SearchInput{
				Query: strings.Join(args, " "),
				Limit: limit,
				Paths: paths,
			})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, out)
			}

			for _, s := range out.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", s.Source.ID, s.Reason)
			}
			if len(out.Results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching fragments.")
				return nil
			}
			printResults(cmd.OutOrStdout(), out.Results)
			return nil
		},
	}

	cmd.Flags().IntP("number", "n", 0, "Maximum results (default retrieval.top_k)")
	cmd.Flags().StringSlice("path", nil, "Files or directories to search instead of the documents folder")
	return cmd
}
