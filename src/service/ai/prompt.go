package ai

import "fmt"

// BuildFixPrompt builds the prompt asking the model for a corrected
// whole-file replacement for one flagged issue
func BuildFixPrompt(ruleID, description, snippet, filePath, content string) string {
	return fmt.Sprintf(`You are a code-fixing assistant. A static analysis rule flagged an issue in a source file.

Rule: %s
Problem: %s
File: %s

Offending code (the line marked with ">" is the match):
%s

Full current file content:
%s

Rewrite the entire file with the issue fixed. Keep every edit as small as
possible: change only what is needed to resolve the flagged issue and leave
all other code, formatting, and comments untouched.

Return ONLY the complete corrected file content inside a single fenced code
block, with no explanation before or after it.`,
		ruleID, description, filePath, snippet, content)
}
