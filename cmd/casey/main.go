// Casey chat client: talks to the assistance portal gateway, drives
// chat sessions and plan execution from the terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/smagr173/casey/pkg/config"
	"github.com/smagr173/casey/pkg/version"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "casey",
		Short:         "Casey, the assistance portal chat client",
		Long:          "Casey drives chat sessions against the assistance portal gateway: prompts, background job polling, plan review and execution.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "casey.yaml", "Path to configuration file")
	cmd.PersistentFlags().String("env", ".env", "Path to .env file")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		envPath, _ := cmd.Flags().GetString("env")
		if err := godotenv.Load(envPath); err != nil {
			slog.Debug("Could not load .env file, continuing with existing environment",
				"path", envPath, "error", err)
		}
	}

	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newConversationsCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newStubCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
}

// loadConfig reads the config file named by the --config flag and layers
// environment overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
