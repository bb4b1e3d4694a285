package scanner

import (
	"fmt"
	"strings"
)

// snippetContext is the number of lines kept on each side of a match
const snippetContext = 2

// buildSnippet renders a small window around the matched line, clamped to
// the file bounds. Lines are numbered 1-based and the matched line carries
// a ">" marker.
func buildSnippet(lines []string, matchIdx int) string {
	start := matchIdx - snippetContext
	if start < 0 {
		start = 0
	}
	end := matchIdx + snippetContext
	if end > len(lines)-1 {
		end = len(lines) - 1
	}

	var sb strings.Builder
	for i := start; i <= end; i++ {
		marker := "  "
		if i == matchIdx {
			marker = "> "
		}
		sb.WriteString(fmt.Sprintf("%s%d | %s", marker, i+1, lines[i]))
		if i < end {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
