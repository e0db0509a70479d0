package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/4thel00z/docrag/internal"
	"github.com/spf13/cobra"
)

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [session]",
		Short: "Show conversations recorded by rag chat --transcript",
		Long: `Without a session id, list the recorded sessions. With one, print its turns
and the documents each answer drew on.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("transcript")
			asJSON, _ := cmd.Flags().GetBool("json")

			transcript, err := internal.OpenTranscript(path)
			if err != nil {
				return err
			}
			defer transcript.Close()

			ctx := cmd.Context()
			if len(args) == 0 {
				ids, err := transcript.Sessions(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, map[string]any{"sessions": ids})
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No recorded sessions.")
					return nil
				}
				for _, id := range ids {
					turns, err := transcript.Turns(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %d turns  %s\n", id, len(turns), turns[0].At.Local().Format("2006-01-02 15:04"))
				}
				return nil
			}

			turns, err := transcript.Turns(ctx, args[0])
			if err != nil {
				return err
			}
			if len(turns) == 0 {
				return fmt.Errorf("%w: no recorded session %q", internal.ErrInvalidArgument, args[0])
			}
			if asJSON {
				return writeJSON(cmd, turns)
			}
			for _, t := range turns {
				fmt.Fprintf(cmd.OutOrStdout(), "> %s\n%s\n", t.Question, t.Answer)
				if docs := sourceDocuments(t.Sources); len(docs) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "(from %s)\n", strings.Join(docs, ", "))
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().String("transcript", "", "SQLite database written by rag chat --transcript")
	_ = cmd.MarkFlagRequired("transcript")
	return cmd
}

// sourceDocuments reduces fragment ids to the distinct documents they
// come from, in first-seen order.
func sourceDocuments(ids []internal.FragmentID) []string {
	var docs []string
	for _, id := range ids {
		doc, _, err := id.Split()
		if err != nil {
			doc = id.String()
		}
		if !slices.Contains(docs, doc) {
			docs = append(docs, doc)
		}
	}
	return docs
}
