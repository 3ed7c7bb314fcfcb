package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEvent(t *testing.T, typ EventType, data any) *Event {
	t.Helper()
	ev, err := NewEvent(typ, "test", data)
	require.NoError(t, err)
	return ev
}

func TestBusDeliversInOrder(t *testing.T) {
	b := NewBus(4)

	var mu sync.Mutex
	var got []string
	b.Subscribe(EventReplyReceived, func(_ context.Context, ev *Event) {
		var data MessageEventData
		assert.NoError(t, ev.ParseData(&data))
		mu.Lock()
		got = append(got, data.Content)
		mu.Unlock()
	})

	ctx := context.Background()
	want := []string{"one", "two", "three", "four", "five", "six", "seven", "eight"}
	for _, c := range want {
		require.NoError(t, b.Publish(ctx, mustEvent(t, EventReplyReceived, MessageEventData{Content: c})))
	}
	b.Close()

	assert.Equal(t, want, got)
}

func TestBusFiltersByTypeAndRunsSubscribersInOrder(t *testing.T) {
	b := NewBus(0)

	var calls []string
	b.Subscribe(EventConnectionState, func(context.Context, *Event) { calls = append(calls, "first") })
	b.Subscribe(EventConnectionState, func(context.Context, *Event) { calls = append(calls, "second") })
	b.Subscribe(EventUserMessage, func(context.Context, *Event) { calls = append(calls, "user") })

	require.True(t, b.TryPublish(mustEvent(t, EventConnectionState, ConnectionStateEventData{State: "connected"})))
	b.Close()

	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus(1)
	called := false
	id := b.Subscribe(EventUserMessage, func(context.Context, *Event) { called = true })
	b.Unsubscribe(id)
	b.Unsubscribe("sub-missing")

	require.NoError(t, b.Publish(context.Background(), mustEvent(t, EventUserMessage, nil)))
	b.Close()
	assert.False(t, called)
}

func TestBusRecoversHandlerPanic(t *testing.T) {
	b := NewBus(2)
	delivered := make(chan struct{}, 1)
	b.Subscribe(EventReplyReceived, func(context.Context, *Event) { panic("boom") })
	b.Subscribe(EventReplyReceived, func(context.Context, *Event) { delivered <- struct{}{} })

	require.NoError(t, b.Publish(context.Background(), mustEvent(t, EventReplyReceived, nil)))

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("second handler not called after panic")
	}
	b.Close()
}

func TestBusPublishAfterClose(t *testing.T) {
	b := NewBus(1)
	b.Close()
	b.Close()

	assert.ErrorIs(t, b.Publish(context.Background(), mustEvent(t, EventUserMessage, nil)), ErrClosed)
	assert.False(t, b.TryPublish(mustEvent(t, EventUserMessage, nil)))
}

func TestBusPublishHonoursContext(t *testing.T) {
	b := NewBus(1)
	block := make(chan struct{})
	b.Subscribe(EventUserMessage, func(context.Context, *Event) { <-block })
	t.Cleanup(func() {
		close(block)
		b.Close()
	})

	ctx := context.Background()
	require.NoError(t, b.Publish(ctx, mustEvent(t, EventUserMessage, nil))) // picked up, handler blocks

	// Fill the buffer, then the next publish must wait for ctx.
	require.Eventually(t, func() bool {
		return b.TryPublish(mustEvent(t, EventUserMessage, nil))
	}, time.Second, 5*time.Millisecond)

	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Publish(tctx, mustEvent(t, EventUserMessage, nil)), context.DeadlineExceeded)
}

func TestEventParseData(t *testing.T) {
	ev := mustEvent(t, EventReplyReceived, MessageEventData{ChatID: "c1", Sender: "Assistant", Content: "hi"})
	assert.Equal(t, EventReplyReceived, ev.Type)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())

	var data MessageEventData
	require.NoError(t, ev.ParseData(&data))
	assert.Equal(t, MessageEventData{ChatID: "c1", Sender: "Assistant", Content: "hi"}, data)

	empty := mustEvent(t, EventUserMessage, nil)
	assert.NoError(t, empty.ParseData(&data))
}
