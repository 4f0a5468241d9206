package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/safety-shield/pkg/server"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Long: `Serve POST /v1/generate and GET /healthz until interrupted.

Status codes: 200 accepted, 403 authorization failed, 422 input denied,
502 backend failure, 400 malformed body.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := buildShield(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close(cmd.Context()) }()

			if addr == "" {
				addr = s.Config.Server.Addr
			}

			return server.NewHandler(s.Orchestrator, s.Logger).Serve(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")

	return cmd
}
