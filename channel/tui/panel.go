// Package tui provides the terminal user interface for the chat client.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linanwx/nagochat/composer"
)

// Panel is a composable TUI region with its own state, update logic, and view.
// The root App model orchestrates panels without knowing their internals.
type Panel interface {
	Update(tea.Msg) (Panel, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// LogLineMsg carries a single log line from the logger writer.
type LogLineMsg struct{ Line string }

// ChatMsg carries a chat message to display in the conversation panel.
type ChatMsg struct {
	Sender string
	Text   string
	IsUser bool
}

// SystemMsg is client-generated text shown in the conversation panel.
type SystemMsg struct{ Text string }

// ClearChatMsg empties the conversation panel, e.g. after switching chats.
type ClearChatMsg struct{}


// ConnStateMsg reports a connection state change for the status line.
type ConnStateMsg struct{ State string }

// NoticeMsg asks the toast line to show a transient notice.
type NoticeMsg struct{ Notice composer.Notice }

type noticeExpiredMsg struct{ seq int }
