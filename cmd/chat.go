package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linanwx/nagochat/channel"
	"github.com/linanwx/nagochat/logger"
	"github.com/linanwx/nagochat/session"
	"github.com/linanwx/nagochat/transport"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat client",
	Long: `Connect to the chat backend and start composing messages.

On a terminal this opens a full-screen UI; with piped input every line is
sent as one message.

Slash commands:
  /chat <id>   switch to an existing chat
  /new         start a new chat
  /help        list commands
  /quit        leave

Examples:
  nagochat chat                      # Use config.yaml
  nagochat chat --chat 42            # Open chat 42
  echo hi | nagochat chat --chat 42  # Send one message and print the reply`,
	RunE: runChat,
}

var (
	chatID     string
	chatServer string
	chatPlain  bool
)

func init() {
	chatCmd.Flags().StringVar(&chatID, "chat", "", "Chat id to open (overrides config)")
	chatCmd.Flags().StringVar(&chatServer, "server", "", "WebSocket URL of the backend (overrides config)")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "Line mode even on a terminal")
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(chatServer, chatID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := transport.New(cfg.BuildTransportConfig())
	state := session.NewState(cfg.Chat.ChatID)
	ch := channel.NewCLIChannel(channel.CLIConfig{
		Prompt:         cfg.Chat.Prompt,
		Conn:           conn,
		State:          state,
		NoticeDuration: cfg.Chat.NoticeDuration,
		ReadyTimeout:   cfg.Server.DialTimeout,
		ForcePlain:     chatPlain,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := conn.Start(ctx); err != nil {
		return fmt.Errorf("failed to start connection: %w", err)
	}
	if err := ch.Start(ctx); err != nil {
		_ = conn.Stop()
		return fmt.Errorf("failed to start %s frontend: %w", ch.Name(), err)
	}

	dispatcher := NewDispatcher(conn, state, ch, cfg.Server.URL)
	dispatchDone := make(chan error, 1)
	go func() { dispatchDone <- dispatcher.Run(ctx) }()

	logger.Info("nagochat started", "server", cfg.Server.URL, "chat", state.ChatID(), "frontend", ch.Name())

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ch.Done():
	}

	if err := ch.Stop(); err != nil {
		logger.Error("error stopping frontend", "err", err)
	}
	// Stop before cancel so queued messages are flushed.
	if err := conn.Stop(); err != nil {
		logger.Error("error stopping connection", "err", err)
	}
	cancel()
	if err := <-dispatchDone; err != nil {
		logger.Error("dispatcher stopped with error", "err", err)
	}

	logger.Info("nagochat stopped")
	return nil
}
