// Package search defines the web search interface used by interview
// agents and the document formatting shared by its implementations.
package search

import (
	"context"
	"fmt"
	"strings"
)

// Result is a single web search hit.
type Result struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Searcher retrieves web documents for a query. Implementations return
// an empty slice, not an error, when nothing was found.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// FormatResults renders results as document blocks the expert prompt
// can cite by href.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return ""
	}

	docs := make([]string, 0, len(results))
	for _, r := range results {
		docs = append(docs, fmt.Sprintf("<Document href=%q/>\n%s\n</Document>", r.URL, r.Content))
	}
	return strings.Join(docs, "\n\n---\n\n")
}
