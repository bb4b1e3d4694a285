package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/justin7251/ai-code-fixer/src/controller"
	"github.com/justin7251/ai-code-fixer/src/model"
	"github.com/justin7251/ai-code-fixer/src/util"
)

func (h *Handler) fixCmd() *cobra.Command {
	var (
		analysisID string
		ruleIDs    []string
		createPR   bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Generate AI fixes for a completed analysis",
		Long:  "Asks the model for corrected file rewrites and either records suggestions or commits them behind a pull request",
		RunE: func(cmd *cobra.Command, args []string) error {
			util.Info("Fixing analysis %s (rules: %v, pr: %v)", analysisID, ruleIDs, createPR)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			rt, cleanup, err := h.newRuntime()
			if err != nil {
				return err
			}
			defer cleanup()

			generator, err := h.newGenerator()
			if err != nil {
				return fmt.Errorf("initializing model client: %w", err)
			}

			fixCtrl := controller.NewFixController(h.cfg, rt.store, rt.provider, generator, rt.pool)
			fix, err := fixCtrl.Start(ctx, analysisID, ruleIDs, createPR, "")
			if err != nil {
				return fmt.Errorf("starting fix: %w", err)
			}

			fix, err = waitForFix(ctx, fixCtrl, fix.ID)
			if err != nil {
				return err
			}
			if fix.Status == model.StatusFailed {
				return fmt.Errorf("fix %s failed: %s", fix.ID, fix.Error)
			}

			printFixSummary(fix)
			return nil
		},
	}

	cmd.Flags().StringVarP(&analysisID, "analysis", "a", "", "Analysis run id (required)")
	cmd.Flags().StringSliceVar(&ruleIDs, "rules", nil, "Rule ids to fix (default: all issues of the analysis)")
	cmd.Flags().BoolVar(&createPR, "create-pr", false, "Commit fixes to a branch and open a pull request")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Minute, "Fix timeout")

	cmd.MarkFlagRequired("analysis")

	return cmd
}

func waitForFix(ctx context.Context, ctrl *controller.FixController, id string) (*model.FixRun, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for fix %s: %w", id, ctx.Err())
		case <-ticker.C:
			fix, err := ctrl.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("polling fix %s: %w", id, err)
			}
			if fix.Status.Terminal() {
				return fix, nil
			}
		}
	}
}

func printFixSummary(fix *model.FixRun) {
	fmt.Fprintf(os.Stderr, "\nFix complete:\n")
	fmt.Fprintf(os.Stderr, "  Run id:      %s\n", fix.ID)
	fmt.Fprintf(os.Stderr, "  Fixed:       %d\n", len(fix.FixedIssues))
	if fix.PullRequestURL != "" {
		fmt.Fprintf(os.Stderr, "  Pull request: #%d %s\n", fix.PullRequestNumber, fix.PullRequestURL)
	}

	for _, result := range fix.FixedIssues {
		state := color.CyanString("suggested")
		if result.Committed {
			state = color.GreenString("committed")
		}
		fmt.Fprintf(os.Stderr, "  %s %s in %s:%d\n", state, result.RuleID, result.FilePath, result.Line)
	}
}
