package scanner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justin7251/ai-code-fixer/src/model"
)

func rawIssue(ruleID, path string, line int) model.RawIssue {
	return model.RawIssue{
		FilePath: path,
		Line:     line,
		RuleID:   ruleID,
		Ruleset:  "style",
		Severity: model.SeverityWarning,
		Message:  "message for " + ruleID,
		Snippet:  fmt.Sprintf("> %d | sample", line),
	}
}

func TestAggregateGroupsByRule(t *testing.T) {
	raw := []model.RawIssue{
		rawIssue("RuleA", "a.js", 1),
		rawIssue("RuleB", "a.js", 2),
		rawIssue("RuleA", "b.js", 3),
	}

	agg := Aggregate(raw)
	require.Len(t, agg, 2)

	// First-seen order.
	assert.Equal(t, "RuleA", agg[0].RuleID)
	assert.Equal(t, "RuleB", agg[1].RuleID)

	assert.Equal(t, 2, agg[0].Count)
	assert.Equal(t, 1, agg[1].Count)
	require.Len(t, agg[0].Examples, 2)
	assert.Equal(t, "a.js", agg[0].Examples[0].FilePath)
	assert.Equal(t, "b.js", agg[0].Examples[1].FilePath)
}

// Counts are conserved: the per-group counts sum to the raw issue total,
// and each group keeps at most the example cap.
func TestAggregateCountAndExampleCap(t *testing.T) {
	var raw []model.RawIssue
	for i := 0; i < 9; i++ {
		raw = append(raw, rawIssue("Noisy", "big.js", i+1))
	}
	raw = append(raw, rawIssue("Quiet", "big.js", 100))

	agg := Aggregate(raw)
	require.Len(t, agg, 2)

	total := 0
	for _, group := range agg {
		total += group.Count
		assert.LessOrEqual(t, len(group.Examples), model.MaxExamplesPerRule)
	}
	assert.Equal(t, len(raw), total)

	noisy := agg[0]
	assert.Equal(t, "Noisy", noisy.RuleID)
	assert.Equal(t, 9, noisy.Count)
	require.Len(t, noisy.Examples, model.MaxExamplesPerRule)
	// Examples keep the earliest occurrences.
	for i, ex := range noisy.Examples {
		assert.Equal(t, i+1, ex.Line)
	}
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}

func TestCountFiles(t *testing.T) {
	raw := []model.RawIssue{
		rawIssue("RuleA", "a.js", 1),
		rawIssue("RuleA", "a.js", 2),
		rawIssue("RuleB", "b.js", 1),
	}
	assert.Equal(t, 2, CountFiles(raw))
	assert.Equal(t, 0, CountFiles(nil))
}
