package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/safety-shield/pkg/config"
	"github.com/run-bigpig/safety-shield/pkg/guardrails"
)

func newPolicyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the effective policy tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			policy, err := cfg.BuildPolicy()
			if err != nil {
				return err
			}

			printPolicy(cmd.OutOrStdout(), policy, cfg.Backend.Provider)
			return nil
		},
	}
}

func printPolicy(w io.Writer, policy guardrails.Policy, provider string) {
	fmt.Fprintf(w, "Backend:        %s\n", provider)
	fmt.Fprintf(w, "Auth mode:      %s\n", policy.AuthMode())
	fmt.Fprintf(w, "Auth phrase:    %s\n", maskPhrase(policy.AuthPhrase()))
	printList(w, "Input deny-list", policy.InputDenyList())
	printList(w, "Output deny-list", policy.OutputDenyList())
}

func printList(w io.Writer, title string, terms []string) {
	fmt.Fprintf(w, "%s (%d):\n", title, len(terms))
	if len(terms) == 0 {
		fmt.Fprintln(w, "  (disabled)")
		return
	}
	for _, term := range terms {
		fmt.Fprintf(w, "  - %q\n", term)
	}
}

// maskPhrase keeps the first two runes and hides the rest
func maskPhrase(phrase string) string {
	runes := []rune(phrase)
	if len(runes) <= 2 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-2)
}
