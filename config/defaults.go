package config

import (
	"time"

	"github.com/linanwx/nagochat/logger"
	"github.com/linanwx/nagochat/transport"
)

const (
	defaultServerURL      = "ws://127.0.0.1:8000/ws"
	defaultDialTimeout    = 10 * time.Second
	defaultMinBackoff     = 500 * time.Millisecond
	defaultMaxBackoff     = 30 * time.Second
	defaultOutboundBuffer = 64
	defaultNoticeDuration = 3 * time.Second
	defaultPrompt         = "> "
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            defaultServerURL,
			DialTimeout:    defaultDialTimeout,
			MinBackoff:     defaultMinBackoff,
			MaxBackoff:     defaultMaxBackoff,
			OutboundBuffer: defaultOutboundBuffer,
		},
		Chat: ChatConfig{
			NoticeDuration: defaultNoticeDuration,
			Prompt:         defaultPrompt,
		},
		Logging: defaultLoggingConfig(),
	}
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		File:    "logs/nagochat.log",
	}
}

func (c *Config) applyDefaults() {
	if c.Server.URL == "" {
		c.Server.URL = defaultServerURL
	}
	if c.Server.DialTimeout <= 0 {
		c.Server.DialTimeout = defaultDialTimeout
	}
	if c.Server.MinBackoff <= 0 {
		c.Server.MinBackoff = defaultMinBackoff
	}
	if c.Server.MaxBackoff <= 0 {
		c.Server.MaxBackoff = defaultMaxBackoff
	}
	if c.Server.OutboundBuffer <= 0 {
		c.Server.OutboundBuffer = defaultOutboundBuffer
	}
	if c.Chat.NoticeDuration <= 0 {
		c.Chat.NoticeDuration = defaultNoticeDuration
	}
	if c.Chat.Prompt == "" {
		c.Chat.Prompt = defaultPrompt
	}

	def := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = def
		return
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Level
	}
	if c.Logging.Enabled == nil {
		c.Logging.Enabled = def.Enabled
	}
}

// BuildLoggerConfig converts the logging section for logger.Init.
func (c *Config) BuildLoggerConfig() logger.Config {
	enabled := c.Logging.Enabled == nil || *c.Logging.Enabled
	return logger.Config{
		Enabled: enabled,
		Level:   c.Logging.Level,
		Stdout:  c.Logging.Stdout,
		File:    c.Logging.File,
	}
}

// BuildTransportConfig converts the server section for transport.New.
func (c *Config) BuildTransportConfig() transport.Config {
	return transport.Config{
		URL:            c.Server.URL,
		Token:          c.Server.Token,
		DialTimeout:    c.Server.DialTimeout,
		MinBackoff:     c.Server.MinBackoff,
		MaxBackoff:     c.Server.MaxBackoff,
		OutboundBuffer: c.Server.OutboundBuffer,
	}
}
