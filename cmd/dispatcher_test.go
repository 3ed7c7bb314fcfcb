package cmd

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linanwx/nagochat/channel"
	"github.com/linanwx/nagochat/composer"
	"github.com/linanwx/nagochat/session"
	"github.com/linanwx/nagochat/transport"
)

type fakeSource struct {
	in     chan transport.Frame
	states chan transport.State
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		in:     make(chan transport.Frame, 8),
		states: make(chan transport.State, 8),
	}
}

func (s *fakeSource) Incoming() <-chan transport.Frame     { return s.in }
func (s *fakeSource) StateChanges() <-chan transport.State { return s.states }

type fakeChannel struct {
	mu       sync.Mutex
	sent     []channel.Response
	states   []string
	messages chan *channel.Message
	done     chan struct{}
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		messages: make(chan *channel.Message, 8),
		done:     make(chan struct{}),
	}
}

func (c *fakeChannel) Name() string                      { return "fake" }
func (c *fakeChannel) Start(context.Context) error       { return nil }
func (c *fakeChannel) Stop() error                       { return nil }
func (c *fakeChannel) Messages() <-chan *channel.Message { return c.messages }
func (c *fakeChannel) Done() <-chan struct{}             { return c.done }

func (c *fakeChannel) Send(_ context.Context, resp *channel.Response) error {
	c.mu.Lock()
	c.sent = append(c.sent, *resp)
	c.mu.Unlock()
	return nil
}

func (c *fakeChannel) SetConnectionState(state string) {
	c.mu.Lock()
	c.states = append(c.states, state)
	c.mu.Unlock()
}

func (c *fakeChannel) Sent() []channel.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]channel.Response(nil), c.sent...)
}

func (c *fakeChannel) States() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.states...)
}

func runDispatcher(t *testing.T, src *fakeSource, state *session.State, ch *fakeChannel) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(src, state, ch, "ws://test")
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("dispatcher did not stop")
		}
	})
}

func TestDispatcherDeliversActiveChatReplies(t *testing.T) {
	src := newFakeSource()
	state := session.NewState("c1")
	state.SetLoading(true)
	ch := newFakeChannel()
	runDispatcher(t, src, state, ch)

	src.in <- transport.Frame{ChatID: "other", Content: "not for us"}
	src.in <- transport.Frame{ChatID: "c1", Sender: "Bot", Content: "first"}
	src.in <- transport.Frame{Content: "second"}

	require.Eventually(t, func() bool { return len(ch.Sent()) == 2 }, 2*time.Second, 5*time.Millisecond)
	sent := ch.Sent()
	assert.Equal(t, channel.Response{ChatID: "c1", Sender: "Bot", Text: "first"}, sent[0])
	assert.Equal(t, "second", sent[1].Text)

	assert.False(t, state.Loading())
	assert.Equal(t, []composer.LocalMessage{
		{Sender: "Bot", Content: "first"},
		{Sender: session.AssistantSender, Content: "second"},
	}, state.Messages())
}

func TestDispatcherInactiveReplyKeepsLoading(t *testing.T) {
	src := newFakeSource()
	state := session.NewState("c1")
	state.SetLoading(true)
	ch := newFakeChannel()
	runDispatcher(t, src, state, ch)

	src.in <- transport.Frame{ChatID: "c2", Content: "elsewhere"}
	src.in <- transport.Frame{ChatID: "c1", Content: "marker"}

	require.Eventually(t, func() bool { return len(ch.Sent()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "marker", ch.Sent()[0].Text)
	assert.Len(t, state.Messages(), 1)
}

func TestDispatcherReportsConnectionState(t *testing.T) {
	src := newFakeSource()
	ch := newFakeChannel()
	runDispatcher(t, src, session.NewState("c1"), ch)

	src.states <- transport.StateConnecting
	src.states <- transport.StateConnected

	require.Eventually(t, func() bool { return len(ch.States()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"connecting", "connected"}, ch.States())
}

func TestDispatcherStopsWhenSourceCloses(t *testing.T) {
	src := newFakeSource()
	ch := newFakeChannel()
	d := NewDispatcher(src, session.NewState("c1"), ch, "ws://test")

	src.in <- transport.Frame{ChatID: "c1", Content: "last"}
	close(src.in)

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
	assert.Len(t, ch.Sent(), 1, "queued replies are delivered before Run returns")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "你好...", truncate("你好世界", 2))
	assert.Equal(t, "héllo", truncate("héllo", 5))
}
