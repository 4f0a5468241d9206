package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/safety-shield/pkg/config"
	"github.com/run-bigpig/safety-shield/pkg/shield"
)

const version = "0.1.0"

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "shield",
		Short: "Guarded text generation",
		Long: `shield wraps a text generation model with an authorization check,
an input deny-list and a line level output filter.

Configuration is read from --config (YAML) and the SHIELD_* environment
variables. Backend credentials are only read from the environment.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to YAML config file (built-in defaults when empty)")

	root.AddCommand(
		newGenerateCmd(flags),
		newServeCmd(flags),
		newPolicyCmd(flags),
	)

	return root
}

// buildShield loads the configuration and builds the components. Structured
// logs go to the command's stderr so stdout stays readable.
func buildShield(ctx context.Context, cmd *cobra.Command, flags *globalFlags) (*shield.Shield, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return shield.Build(ctx, cfg, shield.WithLogOutput(cmd.ErrOrStderr()))
}
