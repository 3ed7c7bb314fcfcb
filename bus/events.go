// Package bus provides the in-process event bus that fans backend traffic
// and connection changes out to frontends.
package bus

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	EventReplyReceived   EventType = "reply.received"
	EventUserMessage     EventType = "user.message"
	EventConnectionState EventType = "connection.state"
)

// Event represents a bus event.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent creates a new event.
func NewEvent(eventType EventType, source string, data any) (*Event, error) {
	var dataBytes json.RawMessage
	if data != nil {
		var err error
		dataBytes, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s event: %w", eventType, err)
		}
	}

	return &Event{
		ID:        generateEventID(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now(),
		Data:      dataBytes,
	}, nil
}

// ParseData unmarshals the event data into the given struct.
func (e *Event) ParseData(v any) error {
	if e.Data == nil {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// MessageEventData is carried by reply and user message events.
type MessageEventData struct {
	ChatID  string `json:"chat_id,omitempty"`
	Sender  string `json:"sender,omitempty"`
	Content string `json:"content"`
}

// ConnectionStateEventData is carried by connection state events.
type ConnectionStateEventData struct {
	State string `json:"state"`
	URL   string `json:"url,omitempty"`
}

var eventCounter atomic.Int64

func generateEventID() string {
	n := eventCounter.Add(1)
	return fmt.Sprintf("evt-%d-%d", time.Now().UnixMilli(), n)
}
