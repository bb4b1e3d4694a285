package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/justin7251/ai-code-fixer/src/controller"
)

func (h *Handler) runsCmd() *cobra.Command {
	var (
		runID    string
		fixes    bool
		limit    int
		format   string
		showJSON bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List or inspect recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			rt, cleanup, err := h.newRuntime()
			if err != nil {
				return err
			}
			defer cleanup()

			if runID != "" {
				if fixes {
					fix, err := rt.store.GetFixRun(ctx, runID)
					if err != nil {
						return fmt.Errorf("loading fix run: %w", err)
					}
					data, _ := json.MarshalIndent(fix, "", "  ")
					fmt.Println(string(data))
					return nil
				}

				run, err := rt.store.GetAnalysisRun(ctx, runID)
				if err != nil {
					return fmt.Errorf("loading analysis run: %w", err)
				}
				if showJSON || format == "" {
					format = "json"
				}
				reportCtrl := controller.NewReportController(h.cfg)
				output, err := reportCtrl.GenerateToString(run, format)
				if err != nil {
					return err
				}
				fmt.Println(output)
				return nil
			}

			if fixes {
				fixRuns, err := rt.store.ListFixRuns(ctx, limit)
				if err != nil {
					return fmt.Errorf("listing fix runs: %w", err)
				}
				for _, fix := range fixRuns {
					fmt.Printf("%s  %-9s  %s  analysis=%s  fixed=%d\n",
						fix.ID, fix.Status, fix.RepoFullName, fix.AnalysisID, len(fix.FixedIssues))
				}
				return nil
			}

			runs, err := rt.store.ListAnalysisRuns(ctx, limit)
			if err != nil {
				return fmt.Errorf("listing analysis runs: %w", err)
			}
			for _, run := range runs {
				fmt.Printf("%s  %-9s  %s@%s  issues=%d  files=%d\n",
					run.ID, run.Status, run.RepoFullName, run.Branch, run.IssueCount, run.FileCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "id", "", "Show one run instead of listing")
	cmd.Flags().BoolVar(&fixes, "fixes", false, "Operate on fix runs instead of analysis runs")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format for --id (json, markdown, sarif)")
	cmd.Flags().BoolVar(&showJSON, "json", false, "Force JSON output for --id")

	return cmd
}
