package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/safety-shield/pkg/pipeline"
)

// errNotAccepted makes the process exit non-zero after a rejected or failed run
var errNotAccepted = errors.New("request was not accepted")

// markers prefix each process log line by severity
var markers = map[pipeline.Level]string{
	pipeline.LevelInfo:    "ℹ️",
	pipeline.LevelSuccess: "✅",
	pipeline.LevelWarning: "⚠️",
	pipeline.LevelError:   "❌",
}

func newGenerateCmd(flags *globalFlags) *cobra.Command {
	var (
		prompt        string
		authorization string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one prompt through the guarded pipeline",
		Long: `Run one prompt through authorization, the input filter, the model
backend and the output filter, printing each step as it happens.

Example:
  shield generate --auth "I am an authorized admin" --prompt "Create a basic firewall policy for a web server."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := buildShield(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close(ctx) }()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Process log:")

			result := s.Orchestrator.Run(ctx, pipeline.Request{
				Prompt:        prompt,
				Authorization: authorization,
			}, pipeline.ReporterFunc(func(entry pipeline.LogEntry) {
				printEntry(out, entry)
			}))

			printResult(out, result)

			if !result.Accepted() {
				return errNotAccepted
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt to send to the model")
	cmd.Flags().StringVarP(&authorization, "auth", "a", "", "Authorization phrase")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func printEntry(w io.Writer, entry pipeline.LogEntry) {
	fmt.Fprintf(w, "%s %s\n", markers[entry.Level], entry.Message)
}

func printResult(w io.Writer, result *pipeline.Result) {
	fmt.Fprintln(w)

	switch result.Outcome {
	case pipeline.OutcomeAccepted:
		fmt.Fprintln(w, "Final Security Policy")
		fmt.Fprintln(w, "---------------------")
		fmt.Fprintln(w, result.Text)
	case pipeline.OutcomeRejected:
		fmt.Fprintf(w, "Rejected (%s)\n", result.Reason)
	default:
		fmt.Fprintf(w, "Backend failure (%s): %s\n", result.Failure, result.Detail)
	}
}
