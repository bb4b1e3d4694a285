package ai

import (
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z0-9+#-]*\r?\n(.*?)```")

// ExtractCode pulls the first fenced code block out of a model response.
// Model output format is not guaranteed: when no fence is present the
// whole response is treated as the code.
func ExtractCode(response string) string {
	if m := fencedBlock.FindStringSubmatch(response); m != nil {
		return m[1]
	}
	return strings.TrimSpace(response)
}
