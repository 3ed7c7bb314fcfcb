package cmd

import (
	"context"
	"errors"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/linanwx/nagochat/bus"
	"github.com/linanwx/nagochat/channel"
	"github.com/linanwx/nagochat/composer"
	"github.com/linanwx/nagochat/logger"
	"github.com/linanwx/nagochat/session"
	"github.com/linanwx/nagochat/transport"
)

const dispatchBufferSize = 128

// frameSource is the inbound half of a transport.Conn.
type frameSource interface {
	Incoming() <-chan transport.Frame
	StateChanges() <-chan transport.State
}

// Dispatcher is the bridge between the connection (pure I/O), the chat
// state and the frontend. Everything flows through the event bus so
// replies are applied in arrival order.
type Dispatcher struct {
	conn  frameSource
	bus   *bus.Bus
	state *session.State
	ch    channel.Channel
	url   string
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(conn frameSource, state *session.State, ch channel.Channel, url string) *Dispatcher {
	return &Dispatcher{
		conn:  conn,
		bus:   bus.NewBus(dispatchBufferSize),
		state: state,
		ch:    ch,
		url:   url,
	}
}

// Run pumps frames, state changes and local messages until ctx is cancelled
// or the connection's Incoming channel is closed.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.bus.Subscribe(bus.EventReplyReceived, d.handleReply)
	d.bus.Subscribe(bus.EventConnectionState, d.handleConnState)
	d.bus.Subscribe(bus.EventUserMessage, d.handleUserMessage)
	defer d.bus.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.pumpFrames(gctx) })
	g.Go(func() error { return d.pumpStates(gctx) })
	g.Go(func() error { return d.pumpMessages(gctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, errStopped) {
		return nil
	}
	return err
}

var errStopped = errors.New("dispatcher: source closed")

func (d *Dispatcher) pumpFrames(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-d.conn.Incoming():
			if !ok {
				return errStopped
			}
			ev, err := bus.NewEvent(bus.EventReplyReceived, "transport", bus.MessageEventData{
				ChatID:  f.ChatID,
				Sender:  f.Sender,
				Content: f.Content,
			})
			if err != nil {
				logger.Warn("drop reply", "err", err)
				continue
			}
			if err := d.bus.Publish(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func (d *Dispatcher) pumpStates(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-d.conn.StateChanges():
			ev, err := bus.NewEvent(bus.EventConnectionState, "transport", bus.ConnectionStateEventData{
				State: s.String(),
				URL:   d.url,
			})
			if err != nil {
				continue
			}
			if !d.bus.TryPublish(ev) {
				logger.Debug("connection state event dropped", "state", s.String())
			}
		}
	}
}

func (d *Dispatcher) pumpMessages(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-d.ch.Messages():
			if !ok {
				return errStopped
			}
			ev, err := bus.NewEvent(bus.EventUserMessage, d.ch.Name(), bus.MessageEventData{
				ChatID:  msg.ChatID,
				Sender:  msg.Sender,
				Content: msg.Text,
			})
			if err != nil {
				continue
			}
			if err := d.bus.Publish(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func (d *Dispatcher) handleReply(ctx context.Context, ev *bus.Event) {
	var data bus.MessageEventData
	if err := ev.ParseData(&data); err != nil {
		logger.Warn("bad reply event", "id", ev.ID, "err", err)
		return
	}
	if !d.state.Accepts(data.ChatID) {
		logger.Debug("reply for inactive chat dropped",
			"chatID", data.ChatID,
			"active", d.state.ChatID(),
			"text", truncate(data.Content, 50),
		)
		return
	}

	d.state.AppendMessage(composer.LocalMessage{Sender: data.Sender, Content: data.Content})
	d.state.SetLoading(false)

	resp := &channel.Response{ChatID: data.ChatID, Sender: data.Sender, Text: data.Content}
	if err := d.ch.Send(ctx, resp); err != nil {
		logger.Warn("render reply failed", "channel", d.ch.Name(), "err", err)
	}
}

func (d *Dispatcher) handleConnState(_ context.Context, ev *bus.Event) {
	var data bus.ConnectionStateEventData
	if err := ev.ParseData(&data); err != nil {
		return
	}
	if sr, ok := d.ch.(channel.StatusReporter); ok {
		sr.SetConnectionState(data.State)
	}
}

func (d *Dispatcher) handleUserMessage(_ context.Context, ev *bus.Event) {
	var data bus.MessageEventData
	if err := ev.ParseData(&data); err != nil {
		return
	}
	logger.Debug("user message sent",
		"channel", ev.Source,
		"chatID", data.ChatID,
		"text", truncate(data.Content, 50),
	)
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
