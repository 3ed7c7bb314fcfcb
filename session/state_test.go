package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linanwx/nagochat/composer"
)

func TestStateSelectChatResetsHistory(t *testing.T) {
	s := NewState("  c1 ")
	assert.Equal(t, "c1", s.ChatID())

	s.AppendMessage(composer.LocalMessage{Sender: composer.UserSender, Content: "hi"})
	s.SetLoading(true)

	s.SelectChat("c1")
	assert.Len(t, s.Messages(), 1, "reselecting the same chat keeps history")
	assert.True(t, s.Loading())

	s.SelectChat("c2")
	assert.Equal(t, "c2", s.ChatID())
	assert.Empty(t, s.Messages())
	assert.False(t, s.Loading())
}

func TestStateNewChat(t *testing.T) {
	s := NewState("")
	assert.Equal(t, "", s.ChatID())

	id := s.NewChat()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, s.ChatID())
	assert.NotEqual(t, id, s.NewChat())
}

func TestStateAppendDefaultsSender(t *testing.T) {
	s := NewState("c1")
	s.AppendMessage(composer.LocalMessage{Content: "reply"})

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, AssistantSender, msgs[0].Sender)

	msgs[0].Content = "mutated"
	assert.Equal(t, "reply", s.Messages()[0].Content)
}

func TestStateAccepts(t *testing.T) {
	s := NewState("c1")
	assert.True(t, s.Accepts(""))
	assert.True(t, s.Accepts("c1"))
	assert.False(t, s.Accepts("c2"))
}

func TestStateConcurrentAccess(t *testing.T) {
	s := NewState("c1")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SetLoading(j%2 == 0)
				s.AppendMessage(composer.LocalMessage{Content: "x"})
				_ = s.Loading()
				_ = s.ChatID()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, s.Messages(), 800)
}
