// Package cmd implements the nagochat command line.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linanwx/nagochat/config"
	"github.com/linanwx/nagochat/logger"
)

var configDirFlag string

var rootCmd = &cobra.Command{
	Use:   "nagochat",
	Short: "Terminal chat client for a WebSocket chat backend",
	Long: `nagochat connects to a chat backend over a WebSocket and lets you
compose messages for the active chat from the terminal.

Run 'nagochat onboard' once to write ~/.nagochat/config.yaml, then
'nagochat chat' to start chatting.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if dir := strings.TrimSpace(configDirFlag); dir != "" {
			config.SetConfigDir(dir)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Config directory (default ~/.nagochat)")
	rootCmd.AddGroup(&cobra.Group{ID: "internal", Title: "Scripting Commands:"})
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// loadConfig loads config.yaml and starts the logger. Flag values that are
// set override the file and the environment.
func loadConfig(serverURL, chatID string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if s := strings.TrimSpace(serverURL); s != "" {
		cfg.Server.URL = s
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if c := strings.TrimSpace(chatID); c != "" {
		cfg.Chat.ChatID = c
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.BuildLoggerConfig(), dir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
	return cfg, nil
}
