// Package session holds the client-side conversation state that the composer
// reads (active chat) and reports into (message history, loading flag).
package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/linanwx/nagochat/composer"
)

// AssistantSender labels replies that arrive without a sender.
const AssistantSender = "Assistant"

// State is shared by a frontend and the reply dispatcher.
type State struct {
	mu       sync.RWMutex
	chatID   string
	loading  bool
	messages []composer.LocalMessage
}

// NewState creates state with an optional initial chat.
func NewState(chatID string) *State {
	return &State{chatID: strings.TrimSpace(chatID)}
}

// ChatID returns the active chat id, or "" when none is selected.
func (s *State) ChatID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatID
}

// SelectChat switches to chatID and clears the local history and loading flag.
// Selecting the active chat again is a no-op.
func (s *State) SelectChat(chatID string) {
	chatID = strings.TrimSpace(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if chatID == s.chatID {
		return
	}
	s.chatID = chatID
	s.messages = nil
	s.loading = false
}

// NewChat creates a fresh chat id, selects it and returns it.
func (s *State) NewChat() string {
	id := uuid.NewString()
	s.SelectChat(id)
	return id
}

// Loading reports whether a reply is awaited.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetLoading updates the awaiting-reply flag.
func (s *State) SetLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// AppendMessage records a message in the active chat's history.
func (s *State) AppendMessage(m composer.LocalMessage) {
	if m.Sender == "" {
		m.Sender = AssistantSender
	}
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
}

// Messages returns a copy of the active chat's history.
func (s *State) Messages() []composer.LocalMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]composer.LocalMessage(nil), s.messages...)
}

// Accepts reports whether a reply tagged with chatID belongs to the active chat.
// Untagged replies are accepted.
func (s *State) Accepts(chatID string) bool {
	if chatID == "" {
		return true
	}
	return chatID == s.ChatID()
}
