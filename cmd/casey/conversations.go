package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smagr173/casey/pkg/gateway"
	"github.com/smagr173/casey/pkg/models"
)

func newConversationsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"ls"},
		Short:   "List recent conversations",
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

			chats, err := gw.FetchChatHistory(cmd.Context(), cfg.Token())
			if err != nil {
				return fmt.Errorf("fetch conversations: %w", err)
			}

			recent := models.RecentChats(chats, limit)
			if len(recent) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No conversations yet")
				return nil
			}
			for _, chat := range recent {
				created := ""
				if t := chat.CreatedAt(); !t.IsZero() {
					created = t.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-36s  %-16s  %s\n",
					chat.ID, created, chat.DisplayTitle())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 4, "Maximum number of conversations to show")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chat-id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
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
			if err := gw.DeleteChat(cmd.Context(), cfg.Token(), args[0]); err != nil {
				return fmt.Errorf("delete conversation %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
