package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linanwx/nagochat/composer"
	"github.com/linanwx/nagochat/session"
)

type fakeConn struct {
	mu    sync.Mutex
	ready bool
	sent  []string
}

func (c *fakeConn) Ready() bool { return c.ready }

func (c *fakeConn) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.sent = append(c.sent, string(b))
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

// dialingConn reports ready only once readyAfter has elapsed since creation.
type dialingConn struct {
	fakeConn
	ready atomic.Bool
}

func newDialingConn(readyAfter time.Duration) *dialingConn {
	c := &dialingConn{}
	if readyAfter >= 0 {
		time.AfterFunc(readyAfter, func() { c.ready.Store(true) })
	}
	return c
}

func (c *dialingConn) Ready() bool { return c.ready.Load() }

func (c *dialingConn) Send(v any) error {
	if !c.Ready() {
		return nil
	}
	return c.fakeConn.Send(v)
}

func (c *dialingConn) WaitReady(ctx context.Context) error {
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for !c.Ready() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type plainHarness struct {
	ch    Channel
	conn  *fakeConn
	state *session.State
	out   *syncBuffer
	err   *syncBuffer
}

func startPlain(t *testing.T, in io.Reader, chatID string, ready bool) *plainHarness {
	t.Helper()
	h := &plainHarness{
		conn:  &fakeConn{ready: ready},
		state: session.NewState(chatID),
		out:   &syncBuffer{},
		err:   &syncBuffer{},
	}
	h.ch = NewCLIChannel(CLIConfig{
		Conn:         h.conn,
		State:        h.state,
		ReplyTimeout: 50 * time.Millisecond,
		In:           in,
		Out:          h.out,
		Err:          h.err,
	})
	require.Equal(t, "plain", h.ch.Name(), "non-file input always gets the plain frontend")
	require.NoError(t, h.ch.Start(context.Background()))
	t.Cleanup(func() { _ = h.ch.Stop() })
	return h
}

func waitDone(t *testing.T, ch Channel) {
	t.Helper()
	select {
	case <-ch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not finish")
	}
}

func TestPlainNoActiveChat(t *testing.T) {
	h := startPlain(t, strings.NewReader("hello\n"), "", true)
	waitDone(t, h.ch)

	assert.Empty(t, h.conn.Sent())
	assert.Contains(t, h.err.String(), composer.NoActiveChatText)
	assert.False(t, h.state.Loading())
	assert.Empty(t, h.state.Messages())
}

func TestPlainBlankLinesIgnored(t *testing.T) {
	h := startPlain(t, strings.NewReader("\n   \n\t\n"), "c1", true)
	waitDone(t, h.ch)

	assert.Empty(t, h.conn.Sent())
	assert.Empty(t, h.err.String())
}

func TestPlainSendAndReply(t *testing.T) {
	pr, pw := io.Pipe()
	h := startPlain(t, pr, "c1", true)

	_, err := pw.Write([]byte("  hi there \n"))
	require.NoError(t, err)

	var msg *Message
	select {
	case msg = <-h.ch.Messages():
	case <-time.After(2 * time.Second):
		t.Fatal("no message emitted")
	}
	assert.Equal(t, "c1", msg.ChatID)
	assert.Equal(t, composer.UserSender, msg.Sender)
	assert.Equal(t, "  hi there ", msg.Text)

	require.Len(t, h.conn.Sent(), 1)
	assert.JSONEq(t, `{"message":"  hi there ","chat_id":"c1"}`, h.conn.Sent()[0])
	assert.Eventually(t, h.state.Loading, time.Second, 5*time.Millisecond)

	require.NoError(t, h.ch.Send(context.Background(), &Response{Text: "**hello** back"}))
	require.NoError(t, pw.Close())
	waitDone(t, h.ch)

	out := h.out.String()
	assert.Contains(t, out, "Assistant:")
	assert.Contains(t, out, "hello back")
	assert.NotContains(t, out, "**")
}

func TestPlainCommands(t *testing.T) {
	h := startPlain(t, strings.NewReader("/chat abc\nhey\n/chat\n/quit\nafter\n"), "", true)
	waitDone(t, h.ch)

	sent := h.conn.Sent()
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"message":"hey","chat_id":"abc"}`, sent[0])
	assert.Contains(t, h.out.String(), "switched to chat abc")
	assert.Contains(t, h.out.String(), "Goodbye!")
	assert.Contains(t, h.err.String(), "usage: /chat <id>")
	assert.Contains(t, h.err.String(), "no reply within")
}

func TestPlainDisconnectedDoesNotWait(t *testing.T) {
	h := startPlain(t, strings.NewReader("one\ntwo\n"), "c1", false)
	waitDone(t, h.ch)

	assert.Empty(t, h.conn.Sent())
	assert.Len(t, h.state.Messages(), 2)
	assert.NotContains(t, h.err.String(), "no reply within")
}

func TestPlainStopClosesMessages(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	h := startPlain(t, pr, "c1", true)

	require.NoError(t, pw.Close())
	waitDone(t, h.ch)
	require.NoError(t, h.ch.Stop())
	require.NoError(t, h.ch.Stop())

	_, ok := <-h.ch.Messages()
	assert.False(t, ok)
}

func TestPlainConnectionState(t *testing.T) {
	h := startPlain(t, strings.NewReader(""), "c1", true)
	waitDone(t, h.ch)

	sr, ok := h.ch.(StatusReporter)
	require.True(t, ok)
	sr.SetConnectionState("connected")
	assert.Contains(t, h.err.String(), "connection: connected")
}

func startPlainDialing(t *testing.T, in io.Reader, conn *dialingConn, readyTimeout time.Duration) (Channel, *session.State, *syncBuffer) {
	t.Helper()
	state := session.NewState("42")
	errOut := &syncBuffer{}
	ch := NewCLIChannel(CLIConfig{
		Conn:         conn,
		State:        state,
		ReplyTimeout: 50 * time.Millisecond,
		ReadyTimeout: readyTimeout,
		In:           in,
		Out:          &syncBuffer{},
		Err:          errOut,
	})
	require.NoError(t, ch.Start(context.Background()))
	t.Cleanup(func() { _ = ch.Stop() })
	return ch, state, errOut
}

func TestPlainWaitsForConnection(t *testing.T) {
	conn := newDialingConn(50 * time.Millisecond)
	ch, state, errOut := startPlainDialing(t, strings.NewReader("hi\n"), conn, 2*time.Second)
	waitDone(t, ch)

	require.Len(t, conn.Sent(), 1)
	assert.JSONEq(t, `{"message":"hi","chat_id":"42"}`, conn.Sent()[0])
	assert.Len(t, state.Messages(), 1)
	assert.Contains(t, errOut.String(), "no reply within")
}

func TestPlainConnectionNeverReady(t *testing.T) {
	conn := newDialingConn(-1)
	ch, state, errOut := startPlainDialing(t, strings.NewReader("hi\n"), conn, 30*time.Millisecond)
	waitDone(t, ch)

	assert.Empty(t, conn.Sent())
	assert.Len(t, state.Messages(), 1, "the message is still shown locally")
	assert.Contains(t, errOut.String(), "connection: ")
	assert.NotContains(t, errOut.String(), "no reply within")
}
