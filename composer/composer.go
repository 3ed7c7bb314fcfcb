// Package composer holds the message draft and turns a submit action into
// an outbound send plus a local message record for the parent view.
package composer

import (
	"strings"

	"github.com/linanwx/nagochat/logger"
)

// Labels used by every frontend that renders a composer.
const (
	Placeholder = "Type a message..."
	SubmitLabel = "Send"
)

// Conn is the capability the composer needs from a shared connection.
// The composer never opens, closes or reconnects it.
type Conn interface {
	Ready() bool
	Send(v any) error
}

// Config wires a composer to its parent.
type Config struct {
	Conn             Conn                 // shared connection handle, may be nil
	ChatID           func() string        // active chat id, "" when none is selected
	OnNewUserMessage func(LocalMessage)   // called once per successful submit
	SetLoading       func(isLoading bool) // set to true after a successful submit
	Notifier         Notifier             // transient user-facing notices
}

// Outcome reports which path a Submit call took.
type Outcome int

const (
	// Ignored means the draft was empty or whitespace only.
	Ignored Outcome = iota
	// NoActiveChat means the draft was rejected because no chat is selected.
	NoActiveChat
	// Sent means the draft was dispatched and cleared.
	Sent
)

func (o Outcome) String() string {
	switch o {
	case NoActiveChat:
		return "no-active-chat"
	case Sent:
		return "sent"
	default:
		return "ignored"
	}
}

// Composer owns a single draft string. It is not safe for concurrent use;
// frontends drive it from their own event loop.
type Composer struct {
	cfg   Config
	draft string
}

// New creates a composer with an empty draft.
func New(cfg Config) *Composer {
	return &Composer{cfg: cfg}
}

// Draft returns the current draft text.
func (c *Composer) Draft() string {
	return c.draft
}

// SetDraft replaces the draft. Frontends call it on every keystroke.
func (c *Composer) SetDraft(text string) {
	c.draft = text
}

// SetConn swaps the connection handle read at submit time.
func (c *Composer) SetConn(conn Conn) {
	c.cfg.Conn = conn
}

// Submit sends the current draft to the active chat.
//
// Whitespace-only drafts are ignored without any side effect. With no active
// chat a NoActiveChatText notice is raised and the draft is kept. Otherwise
// the raw draft is sent, reported to the parent, cleared, and loading is set.
func (c *Composer) Submit() Outcome {
	if strings.TrimSpace(c.draft) == "" {
		return Ignored
	}

	chatID := c.activeChatID()
	if chatID == "" {
		c.notify(Notice{Level: LevelError, Text: NoActiveChatText})
		return NoActiveChat
	}

	text := c.draft
	c.send(OutgoingMessage{Message: text, ChatID: chatID})

	if c.cfg.OnNewUserMessage != nil {
		c.cfg.OnNewUserMessage(LocalMessage{Sender: UserSender, Content: text})
	}
	c.draft = ""
	if c.cfg.SetLoading != nil {
		c.cfg.SetLoading(true)
	}
	return Sent
}

func (c *Composer) activeChatID() string {
	if c.cfg.ChatID == nil {
		return ""
	}
	return c.cfg.ChatID()
}

// send is best effort. Delivery failures belong to the connection owner.
func (c *Composer) send(msg OutgoingMessage) {
	conn := c.cfg.Conn
	if conn == nil || !conn.Ready() {
		logger.Debug("connection not ready, message not sent", "chatID", msg.ChatID)
		return
	}
	if err := conn.Send(msg); err != nil {
		logger.Debug("message send failed", "chatID", msg.ChatID, "err", err)
	}
}

func (c *Composer) notify(n Notice) {
	if c.cfg.Notifier == nil {
		logger.Warn("notice dropped, no notifier", "text", n.Text)
		return
	}
	c.cfg.Notifier.Notify(n)
}
