package main

import (
	"fmt"

	"github.com/4thel00z/docrag/internal"
	"github.com/spf13/cobra"
)

func NewChunkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Show how a document is split into fragments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxChars, _ := cmd.Flags().GetInt("max-chars")
			asJSON, _ := cmd.Flags().GetBool("json")

			p, err := a.pipeline(cmd, false)
			if err != nil {
				return err
			}

			out, err := internal.NewChunkUseCase(p).Execute(cmd.Context(), internal.ChunkInput{
				Path:          args[0],
				MaxChunkChars: maxChars,
			})
			if err != nil {
				return fmt.Errorf("chunk: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, out)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d fragments of at most %d chars\n", out.Source.ID, len(out.Fragments), out.MaxChunkChars)
			for _, f := range out.Fragments {
				fmt.Fprintf(cmd.OutOrStdout(), "--- %s (offset %d, %d chars)\n%s\n", f.ID, f.Offset, len([]rune(f.Content)), f.Content)
			}
			return nil
		},
	}

	cmd.Flags().Int("max-chars", 0, "Fragment size in characters (default from config)")
	return cmd
}
