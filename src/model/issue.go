package model

// Severity represents the severity level of a detected issue
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// ValidSeverity reports whether s is one of the known severity levels
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// MaxExamplesPerRule bounds how many example occurrences are retained
// per aggregated issue.
const MaxExamplesPerRule = 5

// RawIssue is a single pattern match in a single file. Raw issues are
// produced by the scanner and consumed immediately by aggregation; they
// are never persisted standalone.
type RawIssue struct {
	FilePath string   `json:"file_path"`
	Line     int      `json:"line"`   // 1-based
	Column   int      `json:"column"` // 1-based match start
	RuleID   string   `json:"rule_id"`
	Ruleset  string   `json:"ruleset"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Snippet  string   `json:"snippet"`
}

// IssueExample is one representative occurrence kept on an aggregated issue
type IssueExample struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
	Snippet  string `json:"snippet"`
}

// AggregatedIssue summarizes all occurrences of one rule within a run
type AggregatedIssue struct {
	RuleID      string         `json:"rule_id"`
	Ruleset     string         `json:"ruleset"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Count       int            `json:"count"`
	Examples    []IssueExample `json:"examples"`
}

// NewAggregatedIssue creates an aggregated issue seeded from the first
// raw occurrence of a rule
func NewAggregatedIssue(raw RawIssue) *AggregatedIssue {
	sev := raw.Severity
	if !ValidSeverity(sev) {
		sev = SeverityInfo
	}
	agg := &AggregatedIssue{
		RuleID:      raw.RuleID,
		Ruleset:     raw.Ruleset,
		Severity:    sev,
		Description: raw.Message,
	}
	agg.Add(raw)
	return agg
}

// Add records one more occurrence, retaining it as an example only while
// the per-rule example cap has not been reached
func (a *AggregatedIssue) Add(raw RawIssue) {
	a.Count++
	if len(a.Examples) < MaxExamplesPerRule {
		a.Examples = append(a.Examples, IssueExample{
			FilePath: raw.FilePath,
			Line:     raw.Line,
			Snippet:  raw.Snippet,
		})
	}
}
