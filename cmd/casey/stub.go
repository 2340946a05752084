package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/smagr173/casey/pkg/gatewaystub"
)

func newStubCmd() *cobra.Command {
	var (
		addr     string
		token    string
		jobDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run an in-memory stub gateway for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			stub := gatewaystub.NewServer(gatewaystub.Options{
				Token:    token,
				JobDelay: jobDelay,
			})
			slog.Info("Starting stub gateway", "addr", addr, "job_delay", jobDelay)
			if err := http.ListenAndServe(addr, stub.Router()); err != nil {
				return fmt.Errorf("stub gateway: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8085", "Listen address")
	cmd.Flags().StringVar(&token, "token", "", "Require this bearer token on every call")
	cmd.Flags().DurationVar(&jobDelay, "job-delay", 2*time.Second, "How long dispatched jobs stay active")
	return cmd
}
