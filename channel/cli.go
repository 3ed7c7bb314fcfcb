package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"

	"github.com/linanwx/nagochat/composer"
	"github.com/linanwx/nagochat/logger"
	"github.com/linanwx/nagochat/mdterm"
	"github.com/linanwx/nagochat/session"
)

const (
	cliMessageBufferSize = 64
	cliStopWaitTimeout   = 500 * time.Millisecond
	defaultReplyTimeout  = 2 * time.Minute
	defaultReadyTimeout  = 10 * time.Second
	defaultCLIPrompt     = "> "
)

// CLIConfig configures the terminal frontends.
type CLIConfig struct {
	Prompt         string
	Conn           composer.Conn
	State          *session.State
	NoticeDuration time.Duration
	// ReplyTimeout bounds how long plain mode waits for a reply before
	// reading the next line.
	ReplyTimeout time.Duration
	// ReadyTimeout bounds how long plain mode waits for the connection
	// before submitting a line. Used only when Conn implements ReadyWaiter.
	ReadyTimeout time.Duration

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// ForcePlain disables the TUI even on a terminal.
	ForcePlain bool
}

func (c *CLIConfig) withDefaults() {
	if c.Prompt == "" {
		c.Prompt = defaultCLIPrompt
	}
	if c.State == nil {
		c.State = session.NewState("")
	}
	if c.ReplyTimeout <= 0 {
		c.ReplyTimeout = defaultReplyTimeout
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = defaultReadyTimeout
	}
	if c.In == nil {
		c.In = os.Stdin
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Err == nil {
		c.Err = os.Stderr
	}
}

// ReadyWaiter is implemented by connections that can block until they are
// able to send.
type ReadyWaiter interface {
	WaitReady(ctx context.Context) error
}

// NewCLIChannel creates a terminal frontend.
// If input is a terminal, it returns a TUI-based channel; otherwise a plain scanner.
func NewCLIChannel(cfg CLIConfig) Channel {
	cfg.withDefaults()
	if !cfg.ForcePlain && isTerminal(cfg.In) {
		return newTUIChannel(cfg)
	}
	return newPlainCLIChannel(cfg)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// plainCLIChannel reads one message per line (for pipes and dumb terminals).
type plainCLIChannel struct {
	cfg      CLIConfig
	composer *composer.Composer

	messages     chan *Message
	done         chan struct{}
	finished     chan struct{}
	responseDone chan struct{}
	wg           sync.WaitGroup
	msgID        atomic.Int64
	outMu        sync.Mutex
	mu           sync.Mutex
	waitingResp  bool
	stopOnce     sync.Once
}

func newPlainCLIChannel(cfg CLIConfig) *plainCLIChannel {
	c := &plainCLIChannel{
		cfg:          cfg,
		messages:     make(chan *Message, cliMessageBufferSize),
		done:         make(chan struct{}),
		finished:     make(chan struct{}),
		responseDone: make(chan struct{}, 1),
	}
	c.composer = composer.New(composer.Config{
		Conn:             cfg.Conn,
		ChatID:           cfg.State.ChatID,
		OnNewUserMessage: c.handleUserMessage,
		SetLoading:       cfg.State.SetLoading,
		Notifier:         composer.NotifierFunc(c.notify),
	})
	return c
}

func (c *plainCLIChannel) Name() string {
	return "plain"
}

func (c *plainCLIChannel) Start(ctx context.Context) error {
	logger.Info("cli channel started (plain mode)")

	c.wg.Add(1)
	go c.readInput(ctx)

	return nil
}

func (c *plainCLIChannel) Stop() error {
	c.stopOnce.Do(func() {
		close(c.done)

		waitDone := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(waitDone)
		}()

		select {
		case <-waitDone:
			close(c.messages)
		case <-time.After(cliStopWaitTimeout):
			logger.Warn("cli channel stop timed out waiting for input loop")
		}

		logger.Info("cli channel stopped")
	})
	return nil
}

func (c *plainCLIChannel) Send(_ context.Context, resp *Response) error {
	sender := resp.Sender
	if sender == "" {
		sender = session.AssistantSender
	}
	c.printf("\n%s:\n%s\n\n", sender, mdterm.Render(resp.Text))

	if c.completeWaitingResponse() {
		select {
		case c.responseDone <- struct{}{}:
		default:
		}
	} else {
		c.printf("%s", c.cfg.Prompt)
	}
	return nil
}

func (c *plainCLIChannel) Messages() <-chan *Message {
	return c.messages
}

func (c *plainCLIChannel) Done() <-chan struct{} {
	return c.finished
}

func (c *plainCLIChannel) SetConnectionState(state string) {
	c.errorf("connection: %s\n", state)
}

func (c *plainCLIChannel) readInput(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.finished)

	scanner := bufio.NewScanner(c.cfg.In)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		c.printf("%s", c.cfg.Prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Warn("cli input error", "err", err)
			}
			return
		}

		line := scanner.Text()
		if cmd, ok := session.ParseCommand(line); ok {
			res := c.cfg.State.Execute(cmd)
			if res.Quit {
				c.printf("Goodbye!\n")
				return
			}
			if res.IsError {
				c.errorf("error: %s\n", res.Feedback)
			} else {
				c.printf("%s\n", res.Feedback)
			}
			continue
		}

		select {
		case <-c.responseDone:
		default:
		}
		c.setWaitingResponse(true)

		if strings.TrimSpace(line) != "" && c.cfg.State.ChatID() != "" {
			c.waitReady(ctx)
		}
		c.composer.SetDraft(line)
		if c.composer.Submit() != composer.Sent {
			c.setWaitingResponse(false)
			continue
		}
		// A reply cannot arrive over a connection that dropped the message.
		if c.cfg.Conn == nil || !c.cfg.Conn.Ready() {
			c.setWaitingResponse(false)
			continue
		}

		timer := time.NewTimer(c.cfg.ReplyTimeout)
		select {
		case <-c.responseDone:
			timer.Stop()
		case <-timer.C:
			c.setWaitingResponse(false)
			c.errorf("no reply within %s\n", c.cfg.ReplyTimeout)
		case <-c.done:
			timer.Stop()
			c.setWaitingResponse(false)
			return
		case <-ctx.Done():
			timer.Stop()
			c.setWaitingResponse(false)
			return
		}
	}
}

// waitReady holds piped input until the connection is up, so the first line
// is not dropped while the socket is still dialing.
func (c *plainCLIChannel) waitReady(ctx context.Context) {
	w, ok := c.cfg.Conn.(ReadyWaiter)
	if !ok || c.cfg.Conn.Ready() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReadyTimeout)
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	if err := w.WaitReady(ctx); err != nil {
		logger.Warn("connection not ready", "err", err)
		c.errorf("connection: %v\n", err)
	}
}

func (c *plainCLIChannel) handleUserMessage(msg composer.LocalMessage) {
	c.cfg.State.AppendMessage(msg)
	id := c.msgID.Add(1)
	m := &Message{
		ID:       fmt.Sprintf("cli-%d", id),
		ChatID:   c.cfg.State.ChatID(),
		Sender:   msg.Sender,
		Text:     msg.Content,
		Metadata: map[string]string{"frontend": c.Name()},
	}
	select {
	case c.messages <- m:
	default:
		logger.Debug("cli message buffer full, dropping local copy", "id", m.ID)
	}
}

func (c *plainCLIChannel) notify(n composer.Notice) {
	c.errorf("%s: %s\n", n.Level, n.Text)
}

func (c *plainCLIChannel) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.cfg.Out, format, args...)
}

func (c *plainCLIChannel) errorf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.cfg.Err, format, args...)
}

func (c *plainCLIChannel) setWaitingResponse(v bool) {
	c.mu.Lock()
	c.waitingResp = v
	c.mu.Unlock()
}

func (c *plainCLIChannel) completeWaitingResponse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.waitingResp {
		return false
	}
	c.waitingResp = false
	return true
}
