// Package summarizer adapts the external text-generation capability:
// full document text in, a bounded multi-line summary out.
package summarizer

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Summarizer produces at most maxLines non-empty summary lines for text.
// Backend errors, non-2xx responses, and malformed payloads are returned
// as errors wrapping domain.ErrSummarizationFault.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLines int) ([]string, error)
}

// ClampLines splits generated text into lines, trims surrounding
// whitespace, drops empty lines, and keeps at most maxLines of what
// remains, in order.
func ClampLines(text string, maxLines int) []string {
	raw := strings.Split(strings.TrimSpace(text), "\n")
	lines := make([]string, 0, maxLines)
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == maxLines {
			break
		}
	}
	return lines
}

// Truncate deterministically cuts text to at most limit bytes, backing up
// to a rune boundary so the result stays valid UTF-8. The backend has a
// token budget; identical input always yields an identical submission.
func Truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
