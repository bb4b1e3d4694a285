package scanner

import "github.com/justin7251/ai-code-fixer/src/model"

// Aggregate reduces raw issues to one aggregated issue per rule id.
// Groups appear in first-seen order; each group keeps the total count and
// the first few occurrences as examples. Pure reduction, no I/O.
func Aggregate(raw []model.RawIssue) []model.AggregatedIssue {
	var order []string
	groups := make(map[string]*model.AggregatedIssue)

	for _, issue := range raw {
		if agg, ok := groups[issue.RuleID]; ok {
			agg.Add(issue)
			continue
		}
		groups[issue.RuleID] = model.NewAggregatedIssue(issue)
		order = append(order, issue.RuleID)
	}

	out := make([]model.AggregatedIssue, 0, len(order))
	for _, ruleID := range order {
		out = append(out, *groups[ruleID])
	}
	return out
}

// CountFiles returns the number of distinct files with at least one issue
func CountFiles(raw []model.RawIssue) int {
	files := make(map[string]struct{})
	for _, issue := range raw {
		files[issue.FilePath] = struct{}{}
	}
	return len(files)
}
