package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linanwx/nagochat/config"
	"github.com/linanwx/nagochat/session"
)

var newChatCmd = &cobra.Command{
	Use:     "new-chat",
	Short:   "Print a fresh chat id",
	GroupID: "internal",
	RunE:    runNewChat,
}

var newChatSave bool

func init() {
	newChatCmd.Flags().BoolVar(&newChatSave, "save", false, "Also store the id as the default chat in config.yaml")
	rootCmd.AddCommand(newChatCmd)
}

func runNewChat(cmd *cobra.Command, _ []string) error {
	id := session.NewState("").NewChat()

	if newChatSave {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Chat.ChatID = id
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
