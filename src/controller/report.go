package controller

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/justin7251/ai-code-fixer/src/config"
	"github.com/justin7251/ai-code-fixer/src/model"
	"github.com/justin7251/ai-code-fixer/src/service/report"
	"github.com/justin7251/ai-code-fixer/src/util"
)

// ReportController handles report generation for completed runs
type ReportController struct {
	cfg *config.Config
}

// NewReportController creates a new report controller
func NewReportController(cfg *config.Config) *ReportController {
	return &ReportController{cfg: cfg}
}

// GenerateReports writes reports for a run in all configured formats
func (c *ReportController) GenerateReports(run *model.AnalysisRun) ([]string, error) {
	util.Debug("Generating reports for %d formats: %v", len(c.cfg.Output.Formats), c.cfg.Output.Formats)
	reportGenerator := report.NewGenerator(c.cfg.Output)
	var outputPaths []string

	for _, format := range c.cfg.Output.Formats {
		util.Debug("Generating %s report", format)
		output, err := reportGenerator.Generate(run, format)
		if err != nil {
			util.Error("Failed to generate %s report: %v", format, err)
			return nil, err
		}

		outputPath := c.getOutputPath(run, format)

		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			util.Error("Failed to create output directory: %v", err)
			return nil, err
		}

		if err := os.WriteFile(outputPath, []byte(output), 0644); err != nil {
			util.Error("Failed to write report to %s: %v", outputPath, err)
			return nil, err
		}

		util.Info("Report written: %s", outputPath)
		outputPaths = append(outputPaths, outputPath)
	}

	return outputPaths, nil
}

// GenerateToString renders a report for a run as a string
func (c *ReportController) GenerateToString(run *model.AnalysisRun, format string) (string, error) {
	reportGenerator := report.NewGenerator(c.cfg.Output)
	return reportGenerator.Generate(run, format)
}

func (c *ReportController) getOutputPath(run *model.AnalysisRun, format string) string {
	ext := format
	if format == "markdown" {
		ext = "md"
	}

	repo := strings.ReplaceAll(run.RepoFullName, "/", "-")
	filename := repo + "-scan-report." + ext
	return filepath.Join(c.cfg.Output.OutputDir, filename)
}
