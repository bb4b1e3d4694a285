package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/justin7251/ai-code-fixer/src/config"
	"github.com/justin7251/ai-code-fixer/src/model"
	"github.com/justin7251/ai-code-fixer/src/util"
)

// Generator renders analysis runs in various formats
type Generator struct {
	cfg config.OutputConfig
}

// NewGenerator creates a new report generator
func NewGenerator(cfg config.OutputConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Generate renders a run in the specified format
func (g *Generator) Generate(run *model.AnalysisRun, format string) (string, error) {
	util.Debug("Generating report in %s format (%d issue groups)", format, len(run.Issues))
	switch format {
	case "json":
		return g.generateJSON(run)
	case "markdown", "md":
		return g.generateMarkdown(run)
	case "sarif":
		return g.generateSARIF(run)
	default:
		util.Warn("Unsupported report format requested: %s", format)
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func (g *Generator) generateJSON(run *model.AnalysisRun) (string, error) {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (g *Generator) generateMarkdown(run *model.AnalysisRun) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Repository Scan Report\n\n")
	sb.WriteString(fmt.Sprintf("**Repository:** %s\n", run.RepoFullName))
	sb.WriteString(fmt.Sprintf("**Branch:** %s\n", run.Branch))
	sb.WriteString(fmt.Sprintf("**Run:** %s (%s)\n", run.ID, run.Status))
	sb.WriteString(fmt.Sprintf("**Started:** %s\n\n", run.CreatedAt.Format("2006-01-02 15:04:05 UTC")))

	if run.Error != "" {
		sb.WriteString(fmt.Sprintf("**Error:** %s\n\n", run.Error))
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total matches:** %d\n", run.IssueCount))
	sb.WriteString(fmt.Sprintf("- **Files with issues:** %d\n", run.FileCount))
	sb.WriteString(fmt.Sprintf("- **Distinct rules:** %d\n\n", len(run.Issues)))

	if len(run.Issues) > 0 {
		sb.WriteString("| Rule | Ruleset | Severity | Count |\n")
		sb.WriteString("|------|---------|----------|-------|\n")
		for _, issue := range run.Issues {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d |\n",
				issue.RuleID, issue.Ruleset, issue.Severity, issue.Count))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Issues\n\n")
	for _, issue := range run.Issues {
		sb.WriteString(fmt.Sprintf("### [%s] %s (%d occurrences)\n\n", issue.Severity, issue.RuleID, issue.Count))
		sb.WriteString(fmt.Sprintf("- **Ruleset:** %s\n", issue.Ruleset))
		sb.WriteString(fmt.Sprintf("- **Description:** %s\n\n", issue.Description))

		for _, example := range issue.Examples {
			sb.WriteString(fmt.Sprintf("`%s:%d`\n\n```\n%s\n```\n\n", example.FilePath, example.Line, example.Snippet))
		}
	}

	return sb.String(), nil
}

func (g *Generator) generateSARIF(run *model.AnalysisRun) (string, error) {
	sarif := map[string]any{
		"$schema": "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		"version": "2.1.0",
		"runs": []map[string]any{
			{
				"tool": map[string]any{
					"driver": map[string]any{
						"name":           "ai-code-fixer",
						"version":        "1.0.0",
						"informationUri": "https://github.com/justin7251/ai-code-fixer",
						"rules":          g.buildSARIFRules(run.Issues),
					},
				},
				"results": g.buildSARIFResults(run.Issues),
			},
		},
	}

	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (g *Generator) buildSARIFRules(issues []model.AggregatedIssue) []map[string]any {
	var rules []map[string]any

	for _, issue := range issues {
		rules = append(rules, map[string]any{
			"id":   issue.Ruleset + "/" + issue.RuleID,
			"name": issue.RuleID,
			"shortDescription": map[string]any{
				"text": issue.Description,
			},
			"defaultConfiguration": map[string]any{
				"level": sarifLevel(issue.Severity),
			},
		})
	}

	return rules
}

func (g *Generator) buildSARIFResults(issues []model.AggregatedIssue) []map[string]any {
	var results []map[string]any

	for _, issue := range issues {
		for _, example := range issue.Examples {
			results = append(results, map[string]any{
				"ruleId":  issue.Ruleset + "/" + issue.RuleID,
				"level":   sarifLevel(issue.Severity),
				"message": map[string]any{"text": issue.Description},
				"locations": []map[string]any{
					{
						"physicalLocation": map[string]any{
							"artifactLocation": map[string]any{
								"uri": example.FilePath,
							},
							"region": map[string]any{
								"startLine": example.Line,
							},
						},
					},
				},
			})
		}
	}

	return results
}

func sarifLevel(s model.Severity) string {
	switch s {
	case model.SeverityError:
		return "error"
	case model.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}
