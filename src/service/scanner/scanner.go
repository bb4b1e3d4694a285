package scanner

import (
	"strings"

	"github.com/justin7251/ai-code-fixer/src/model"
	"github.com/justin7251/ai-code-fixer/src/service/rules"
)

// Scan applies the rule table to a decoded file and returns every pattern
// match as a raw issue. Output order is rule order, then line order, then
// match order within the line, so the same content always produces the
// same sequence.
func Scan(table rules.Table, content, filePath string, lang rules.Language) []model.RawIssue {
	ruleList := table.Rules(lang)
	if len(ruleList) == 0 {
		return nil
	}

	lines := strings.Split(content, "\n")
	var issues []model.RawIssue

	for _, rule := range ruleList {
		for i, line := range lines {
			// FindAllStringIndex starts fresh per line; no scan cursor
			// carries over between lines.
			for _, loc := range rule.Pattern.FindAllStringIndex(line, -1) {
				issues = append(issues, model.RawIssue{
					FilePath: filePath,
					Line:     i + 1,
					Column:   loc[0] + 1,
					RuleID:   rule.ID,
					Ruleset:  rule.Ruleset,
					Severity: rule.Severity,
					Message:  rule.Message,
					Snippet:  buildSnippet(lines, i),
				})
			}
		}
	}

	return issues
}
