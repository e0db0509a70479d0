package internal

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the completion prompt: preamble, the retrieved
// fragments numbered in rank order, the recent conversation and finally
// the question.
func BuildPrompt(preamble string, history []Turn, question string, results []SearchResult) string {
	var b strings.Builder

	if preamble != "" {
		b.WriteString(preamble)
		b.WriteString("\n\n")
	}

	b.WriteString("Context:\n")
	if len(results) == 0 {
		b.WriteString("(no matching documents)\n")
	}
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, r.Fragment.ID, r.Fragment.Content)
	}

	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", t.Question, t.Answer)
		}
	}

	fmt.Fprintf(&b, "\nQuestion: %s\nAnswer:", question)
	return b.String()
}
