// Package channel provides the user-facing frontends of the chat client.
package channel

import (
	"context"
)

// Message is a user message that a frontend handed to the connection.
type Message struct {
	ID       string            // Frontend-local message ID
	ChatID   string            // Chat the message was sent to
	Sender   string            // Always composer.UserSender for now
	Text     string            // Raw draft text
	Metadata map[string]string // Frontend-specific metadata
}

// Response is a reply to render in a frontend.
type Response struct {
	ChatID string
	Sender string
	Text   string
}

// Channel is a frontend that composes messages and renders replies.
type Channel interface {
	// Name returns the frontend name ("tui" or "plain").
	Name() string

	// Start begins reading user input.
	Start(ctx context.Context) error

	// Stop shuts the frontend down. It is safe to call more than once.
	Stop() error

	// Send renders a reply.
	Send(ctx context.Context, resp *Response) error

	// Messages yields every message the user sent, after it was sent.
	Messages() <-chan *Message

	// Done is closed once the user has left the frontend.
	Done() <-chan struct{}
}

// StatusReporter is implemented by frontends that display connection state.
type StatusReporter interface {
	SetConnectionState(state string)
}
