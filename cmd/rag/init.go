package main

import (
	"fmt"
	"os"

	"github.com/4thel00z/docrag/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a document workspace",
		Long:  `Create a .rag directory with a default config and an empty documents folder.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			isGlobal, _ := cmd.Flags().GetBool("global")

			var ws internal.Workspace
			if isGlobal {
				ws = a.resolver.Global()
			} else {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("get working directory: %w", err)
				}
				ws = a.resolver.At(cwd)
			}

			cfg := internal.DefaultConfig()
			if err := ws.Init(cfg); err != nil {
				return fmt.Errorf("init %s: %w", ws.RagPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized workspace at %s\n", ws.RagPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Put documents in %s\n", ws.DocumentsPath(cfg.Ingestion.DocumentsDir))
			return nil
		},
	}

	cmd.Flags().Bool("global", false, "Initialize the global workspace (~/.rag)")
	return cmd
}
