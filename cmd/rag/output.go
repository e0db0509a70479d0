package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/4thel00z/docrag/internal"
	"github.com/spf13/cobra"
)

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printIngestReport(w io.Writer, report *internal.IngestReport) {
	for _, s := range report.Sources {
		fmt.Fprintf(w, "%-40s %d fragments\n", s.Source.ID, s.Fragments)
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "skipped %s: %s\n", s.Source.ID, s.Reason)
	}
	fmt.Fprintf(w, "%d fragments from %d documents\n", report.Fragments, len(report.Sources))
}

func printResults(w io.Writer, results []internal.SearchResultOutput) {
	for _, r := range results {
		fmt.Fprintf(w, "%.4f  %s\n", r.Score, r.ID)
		fmt.Fprintf(w, "        %s\n", snippet(r.Content, 160))
	}
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
