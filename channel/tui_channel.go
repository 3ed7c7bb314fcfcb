package channel

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linanwx/nagochat/channel/tui"
	"github.com/linanwx/nagochat/composer"
	"github.com/linanwx/nagochat/logger"
)

const tuiMessageBufferSize = 64

// TUIChannel implements the Channel interface using a bubbletea TUI.
type TUIChannel struct {
	cfg      CLIConfig
	app      *tui.App
	program  *tea.Program
	messages chan *Message
	done     chan struct{}
	finished chan struct{}
	wg       sync.WaitGroup
	msgID    atomic.Int64
	stopOnce sync.Once
}

func newTUIChannel(cfg CLIConfig) *TUIChannel {
	return &TUIChannel{
		cfg:      cfg,
		messages: make(chan *Message, tuiMessageBufferSize),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

func (c *TUIChannel) Name() string { return "tui" }

func (c *TUIChannel) Start(ctx context.Context) error {
	c.app = tui.NewApp(tui.AppConfig{
		Prompt:         c.cfg.Prompt,
		Conn:           c.cfg.Conn,
		State:          c.cfg.State,
		NoticeDuration: c.cfg.NoticeDuration,
		OnUserMessage:  c.emit,
	})
	c.program = tea.NewProgram(c.app,
		tea.WithContext(ctx),
		tea.WithInput(c.cfg.In),
		tea.WithOutput(c.cfg.Out),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Redirect logger output to the TUI log panel.
	logger.Intercept(&logWriter{program: c.program})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.finished)
		if _, err := c.program.Run(); err != nil && ctx.Err() == nil {
			fmt.Fprintf(c.cfg.Err, "tui error: %v\n", err)
		}
	}()

	logger.Info("cli channel started (TUI mode)")
	return nil
}

func (c *TUIChannel) Stop() error {
	c.stopOnce.Do(func() {
		close(c.done)
		if c.program != nil {
			c.program.Quit()
		}
		c.wg.Wait()
		logger.Restore()
		close(c.messages)
		logger.Info("cli channel stopped")
	})
	return nil
}

func (c *TUIChannel) Send(_ context.Context, resp *Response) error {
	if c.program == nil {
		return nil
	}
	c.program.Send(tui.ChatMsg{Sender: resp.Sender, Text: resp.Text})
	return nil
}

func (c *TUIChannel) SetConnectionState(state string) {
	if c.program == nil {
		return
	}
	c.program.Send(tui.ConnStateMsg{State: state})
}

func (c *TUIChannel) Messages() <-chan *Message {
	return c.messages
}

func (c *TUIChannel) Done() <-chan struct{} {
	return c.finished
}

// emit runs inside the bubbletea update loop and must not block.
func (c *TUIChannel) emit(msg composer.LocalMessage) {
	select {
	case <-c.done:
		return
	default:
	}
	id := c.msgID.Add(1)
	m := &Message{
		ID:       fmt.Sprintf("tui-%d", id),
		ChatID:   c.cfg.State.ChatID(),
		Sender:   msg.Sender,
		Text:     msg.Content,
		Metadata: map[string]string{"frontend": c.Name()},
	}
	select {
	case c.messages <- m:
	default:
		logger.Debug("tui message buffer full, dropping local copy", "id", m.ID)
	}
}

// logWriter implements io.Writer and sends each write as a LogLineMsg to the TUI.
type logWriter struct {
	program *tea.Program
}

func (w *logWriter) Write(p []byte) (int, error) {
	// Split on newlines in case a single write contains multiple lines.
	lines := bytes.Split(p, []byte("\n"))
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		w.program.Send(tui.LogLineMsg{Line: string(line)})
	}
	return len(p), nil
}
