package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linanwx/nagochat/config"
)

func TestApplyOnboardAnswers(t *testing.T) {
	cfg := applyOnboardAnswers(config.DefaultConfig(), onboardAnswers{
		ServerURL: " wss://chat.example.com/ws ",
		Token:     " t0k ",
		ChatID:    " 42 ",
	})
	assert.Equal(t, "wss://chat.example.com/ws", cfg.Server.URL)
	assert.Equal(t, "t0k", cfg.Server.Token)
	assert.Equal(t, "42", cfg.Chat.ChatID)
	require.NoError(t, cfg.Validate())

	cfg = applyOnboardAnswers(config.DefaultConfig(), onboardAnswers{ServerURL: "ws://h/ws", NewChat: true, ChatID: "ignored"})
	assert.NotEqual(t, "ignored", cfg.Chat.ChatID)
	assert.Len(t, cfg.Chat.ChatID, 36)
}

func TestValidateServerURL(t *testing.T) {
	assert.NoError(t, validateServerURL("ws://localhost:8000/ws"))
	assert.NoError(t, validateServerURL("wss://chat.example.com"))
	assert.Error(t, validateServerURL("ftp://example.com"))
	assert.Error(t, validateServerURL("https://chat.example.com/ws"))
	assert.Error(t, validateServerURL("ws://"))
	assert.Error(t, validateServerURL("not a url"))
}
