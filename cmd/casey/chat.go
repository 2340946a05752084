package main

import (
	"github.com/spf13/cobra"

	"github.com/smagr173/casey/pkg/gateway"
	"github.com/smagr173/casey/pkg/session"
	"github.com/smagr173/casey/pkg/tui"
)

func newChatCmd() *cobra.Command {
	var chatID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			gw := gateway.NewClient(gateway.Config{
				Endpoint:     cfg.APIEndpoint,
				JobsEndpoint: cfg.JobsEndpoint,
				Timeout:      cfg.HTTPTimeoutDuration(),
			})

			// The update channel decouples controller callbacks from the
			// UI event loop; a full buffer drops intermediate snapshots,
			// which is fine because every snapshot is complete.
			updates := make(chan session.Snapshot, 16)
			ctrl := session.NewController(gw, session.Options{
				Token:        cfg.Token(),
				Route:        cfg.Route,
				Model:        cfg.DefaultModel,
				PollInterval: cfg.PollIntervalDuration(),
				PollDeadline: cfg.PollDeadlineDuration(),
				OnUpdate: func(s session.Snapshot) {
					select {
					case updates <- s:
					default:
					}
				},
			})
			defer ctrl.Close()

			return tui.Run(ctrl, updates, chatID)
		},
	}

	cmd.Flags().StringVar(&chatID, "chat-id", "", "Resume an existing conversation")
	return cmd
}
