// Package config handles configuration loading and saving.
package config

import (
	"strings"
	"time"
)

const (
	configFileName = "config.yaml"
	configDirName  = ".nagochat"
)

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Chat    ChatConfig    `json:"chat" yaml:"chat"`
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// ServerConfig describes the chat backend connection.
type ServerConfig struct {
	URL            string        `json:"url" yaml:"url" env:"NAGOCHAT_SERVER_URL" validate:"required,url"`
	Token          string        `json:"token,omitempty" yaml:"token,omitempty" env:"NAGOCHAT_TOKEN"` // bearer token for the handshake
	DialTimeout    time.Duration `json:"dialTimeout,omitempty" yaml:"dialTimeout,omitempty" validate:"gt=0"`
	MinBackoff     time.Duration `json:"minBackoff,omitempty" yaml:"minBackoff,omitempty" validate:"gt=0"`
	MaxBackoff     time.Duration `json:"maxBackoff,omitempty" yaml:"maxBackoff,omitempty" validate:"gtefield=MinBackoff"`
	OutboundBuffer int           `json:"outboundBuffer,omitempty" yaml:"outboundBuffer,omitempty" validate:"gt=0"`
}

// ChatConfig contains composer and frontend settings.
type ChatConfig struct {
	ChatID         string        `json:"chatId,omitempty" yaml:"chatId,omitempty" env:"NAGOCHAT_CHAT_ID"` // default active chat, empty = none
	NoticeDuration time.Duration `json:"noticeDuration,omitempty" yaml:"noticeDuration,omitempty" validate:"gt=0"`
	Prompt         string        `json:"prompt,omitempty" yaml:"prompt,omitempty"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty" env:"NAGOCHAT_LOG_LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Stdout  bool   `json:"stdout,omitempty" yaml:"stdout,omitempty"` // log to stderr when no TUI is active
	File    string `json:"file,omitempty" yaml:"file,omitempty"`     // log file path, relative to the config dir
}
