package main

import (
	"fmt"
	"strings"

	"github.com/4thel00z/docrag/internal"
	"github.com/spf13/cobra"
)

func NewAskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question from the documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("number")
			provider, _ := cmd.Flags().GetString("provider")
			asJSON, _ := cmd.Flags().GetBool("json")

			p, err := a.pipeline(cmd, true)
			if err != nil {
				return err
			}

			out, err := internal.NewAskUseCase(p, a.generators).Execute(cmd.Context(), internal.AskInput{
				Question: strings.Join(args, " "),
				Limit:    limit,
				Provider: provider,
			})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, out)
			}

			fmt.Fprintln(cmd.OutOrStdout(), out.Answer)
			printSources(cmd, out.Sources)
			return nil
		},
	}

	addAskFlags(cmd)
	return cmd
}

func addAskFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("number", "n", 0, "Fragments of context per question (default retrieval.top_k)")
	cmd.Flags().String("provider", "", "LLM provider (default from config)")
}

func printSources(cmd *cobra.Command, sources []internal.SearchResultOutput) {
	if len(sources) == 0 {
		return
	}
	ids := make([]string, len(sources))
	for i, s := range sources {
		ids[i] = s.ID.String()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nSources: %s\n", strings.Join(ids, ", "))
}
