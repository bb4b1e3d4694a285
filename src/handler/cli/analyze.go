package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/justin7251/ai-code-fixer/src/controller"
	"github.com/justin7251/ai-code-fixer/src/model"
	"github.com/justin7251/ai-code-fixer/src/store"
	"github.com/justin7251/ai-code-fixer/src/util"
)

func (h *Handler) analyzeCmd() *cobra.Command {
	var (
		repoFullName string
		repoID       int64
		branch       string
		outputDir    string
		format       string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Scan a repository for rule violations",
		Long:  "Walks the repository tree, applies the rule table to every analyzable file and reports aggregated issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			util.Info("Analyzing repository: %s@%s (timeout: %v)", repoFullName, branch, timeout)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			rt, cleanup, err := h.newRuntime()
			if err != nil {
				return err
			}
			defer cleanup()

			if repoID == 0 {
				repoID = deriveRepoID(repoFullName)
			}

			analysisCtrl := controller.NewAnalysisController(h.cfg, rt.store, rt.provider, rt.table, rt.pool)
			run, err := analysisCtrl.Start(ctx, controller.AnalyzeRequest{
				RepoID:       repoID,
				RepoFullName: repoFullName,
				Branch:       branch,
			})
			if err != nil {
				var conflict *store.ConflictError
				if errors.As(err, &conflict) {
					fmt.Fprintf(os.Stderr, "An analysis is already active for %s: run %s (status %s)\n",
						conflict.Existing.RepoFullName, conflict.Existing.ID, conflict.Existing.Status)
				}
				return fmt.Errorf("starting analysis: %w", err)
			}

			run, err = waitForAnalysis(ctx, analysisCtrl, run.ID)
			if err != nil {
				return err
			}
			if run.Status == model.StatusFailed {
				return fmt.Errorf("analysis %s failed: %s", run.ID, run.Error)
			}

			// Output results
			reportCtrl := controller.NewReportController(h.cfg)
			if outputDir != "" {
				h.cfg.Output.OutputDir = outputDir
				if format != "" {
					h.cfg.Output.Formats = []string{format}
				}
				paths, err := reportCtrl.GenerateReports(run)
				if err != nil {
					return fmt.Errorf("generating reports: %w", err)
				}
				for _, path := range paths {
					fmt.Printf("Report written to %s\n", path)
				}
			} else {
				outputFormat := format
				if outputFormat == "" {
					outputFormat = "json"
				}
				output, err := reportCtrl.GenerateToString(run, outputFormat)
				if err != nil {
					// Fallback to raw JSON
					data, _ := json.MarshalIndent(run, "", "  ")
					fmt.Println(string(data))
				} else {
					fmt.Println(output)
				}
			}

			printAnalysisSummary(run)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoFullName, "repo", "r", "", "Repository full name, owner/name (required)")
	cmd.Flags().Int64Var(&repoID, "repo-id", 0, "Numeric repository id (derived from the name when omitted)")
	cmd.Flags().StringVarP(&branch, "branch", "b", "main", "Branch to scan")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory path")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (json, markdown, sarif)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Minute, "Analysis timeout")

	cmd.MarkFlagRequired("repo")

	return cmd
}

// waitForAnalysis polls the run record until it reaches a terminal state
func waitForAnalysis(ctx context.Context, ctrl *controller.AnalysisController, id string) (*model.AnalysisRun, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for analysis %s: %w", id, ctx.Err())
		case <-ticker.C:
			run, err := ctrl.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("polling analysis %s: %w", id, err)
			}
			if run.Status.Terminal() {
				return run, nil
			}
		}
	}
}

func printAnalysisSummary(run *model.AnalysisRun) {
	fmt.Fprintf(os.Stderr, "\nAnalysis complete:\n")
	fmt.Fprintf(os.Stderr, "  Run id:       %s\n", run.ID)
	fmt.Fprintf(os.Stderr, "  Total issues: %d\n", run.IssueCount)
	fmt.Fprintf(os.Stderr, "  Files:        %d\n", run.FileCount)
	for _, issue := range run.Issues {
		fmt.Fprintf(os.Stderr, "  %s %-24s %4d\n", severityLabel(issue.Severity), issue.RuleID, issue.Count)
	}
}

func severityLabel(s model.Severity) string {
	switch s {
	case model.SeverityError:
		return color.RedString("[ERROR]  ")
	case model.SeverityWarning:
		return color.YellowString("[WARNING]")
	default:
		return color.CyanString("[INFO]   ")
	}
}

// deriveRepoID gives a stable numeric id for repositories addressed only
// by name, so the active-run check still has a key to work with
func deriveRepoID(fullName string) int64 {
	hash := fnv.New64a()
	hash.Write([]byte(fullName))
	return int64(hash.Sum64() & 0x7fffffffffffffff)
}
