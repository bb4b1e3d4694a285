package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/justin7251/ai-code-fixer/src/service/rules"
)

func (h *Handler) rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rule table by language",
		Run: func(cmd *cobra.Command, args []string) {
			table := rules.DefaultTable()

			langs := table.Languages()
			sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })

			for _, lang := range langs {
				fmt.Printf("%s:\n", lang)
				for _, rule := range table.Rules(lang) {
					fmt.Printf("  %-24s [%s/%s] %s\n", rule.ID, rule.Ruleset, rule.Severity, rule.Message)
				}
				fmt.Println()
			}
		},
	}
}

func (h *Handler) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ai-code-fixer %s\n", h.cfg.Agent.Version)
		},
	}
}
