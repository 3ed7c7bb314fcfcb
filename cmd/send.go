package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/linanwx/nagochat/composer"
	"github.com/linanwx/nagochat/config"
	"github.com/linanwx/nagochat/mdterm"
	"github.com/linanwx/nagochat/session"
	"github.com/linanwx/nagochat/transport"
)

var sendCmd = &cobra.Command{
	Use:     "send",
	Short:   "Send one message to a chat and print the reply",
	GroupID: "internal",
	Example: `  nagochat send --chat 42 --text "hello"
  nagochat send --chat 42 --text "fire and forget" --wait 0`,
	RunE: runSend,
}

var (
	sendChat   string
	sendText   string
	sendServer string
	sendWait   time.Duration
)

func init() {
	sendCmd.Flags().StringVar(&sendChat, "chat", "", "Chat id (defaults to chat.chatId in config)")
	sendCmd.Flags().StringVar(&sendText, "text", "", "Message text (required)")
	sendCmd.Flags().StringVar(&sendServer, "server", "", "WebSocket URL of the backend (overrides config)")
	sendCmd.Flags().DurationVar(&sendWait, "wait", time.Minute, "How long to wait for a reply, 0 to not wait")
	_ = sendCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(sendCmd)
}

var (
	errEmptyMessage = errors.New("message is empty")
	errNoActiveChat = errors.New(composer.NoActiveChatText)
	errNoReply      = errors.New("no reply received")
)

func runSend(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(sendServer, sendChat)
	if err != nil {
		return err
	}

	conn := transport.New(cfg.BuildTransportConfig())
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := conn.Start(ctx); err != nil {
		return fmt.Errorf("failed to start connection: %w", err)
	}
	defer conn.Stop()

	err = sendOnce(ctx, conn, cfg, sendText, sendWait, cmd.OutOrStdout(), cmd.ErrOrStderr())
	// The composer's notice already told the user to pick a chat.
	cmd.SilenceErrors = errors.Is(err, errNoActiveChat)
	return err
}

// replyConn is what sendOnce needs from a transport.Conn.
type replyConn interface {
	composer.Conn
	WaitReady(ctx context.Context) error
	Incoming() <-chan transport.Frame
}

// sendOnce submits text through a composer, exactly as the interactive
// frontends do, then optionally waits for the first reply for the chat.
func sendOnce(ctx context.Context, conn replyConn, cfg *config.Config, text string, wait time.Duration, out, errOut io.Writer) error {
	state := session.NewState(cfg.Chat.ChatID)
	c := composer.New(composer.Config{
		Conn:       conn,
		ChatID:     state.ChatID,
		SetLoading: state.SetLoading,
		Notifier: composer.NotifierFunc(func(n composer.Notice) {
			fmt.Fprintf(errOut, "%s: %s\n", n.Level, n.Text)
		}),
	})
	c.SetDraft(text)

	// The composer drops messages silently while disconnected, so make
	// sure the socket is up before handing it the draft.
	if state.ChatID() != "" {
		dctx, cancel := context.WithTimeout(ctx, cfg.Server.DialTimeout)
		err := conn.WaitReady(dctx)
		cancel()
		if err != nil {
			return fmt.Errorf("connect %s: %w", cfg.Server.URL, err)
		}
	}

	switch c.Submit() {
	case composer.Ignored:
		return errEmptyMessage
	case composer.NoActiveChat:
		return errNoActiveChat
	}

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("%w within %s", errNoReply, wait)
		case f, ok := <-conn.Incoming():
			if !ok {
				return errNoReply
			}
			if !state.Accepts(f.ChatID) {
				continue
			}
			state.SetLoading(false)
			fmt.Fprintln(out, mdterm.Render(f.Content))
			return nil
		}
	}
}
