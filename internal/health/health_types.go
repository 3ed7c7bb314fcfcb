// Package health reports a diagnostic snapshot of the client: runtime
// figures, the config file in use and whether the chat server answers.
package health

import "time"

// Options selects what Collect inspects.
type Options struct {
	ConfigPath string
	ServerURL  string
	Token      string
	ChatID     string
	LogFile    string

	// Probe dials the server once. ProbeTimeout bounds the dial.
	Probe        bool
	ProbeTimeout time.Duration
}

const defaultProbeTimeout = 5 * time.Second

func (o Options) normalize() Options {
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = defaultProbeTimeout
	}
	return o
}

// Snapshot is the result of Collect.
type Snapshot struct {
	Status     string      `json:"status" yaml:"status"`
	Goroutines int         `json:"goroutines" yaml:"goroutines"`
	Memory     MemoryInfo  `json:"memory" yaml:"memory"`
	Runtime    RuntimeInfo `json:"runtime" yaml:"runtime"`
	Config     *ConfigInfo `json:"config,omitempty" yaml:"config,omitempty"`
	Server     *ServerInfo `json:"server,omitempty" yaml:"server,omitempty"`
	Timestamp  string      `json:"timestamp" yaml:"timestamp"`
}

type MemoryInfo struct {
	AllocMB      float64 `json:"allocMB" yaml:"allocMB"`
	TotalAllocMB float64 `json:"totalAllocMB" yaml:"totalAllocMB"`
	SysMB        float64 `json:"sysMB" yaml:"sysMB"`
	NumGC        uint32  `json:"numGC" yaml:"numGC"`
}

type RuntimeInfo struct {
	Version string `json:"version" yaml:"version"`
	OS      string `json:"os" yaml:"os"`
	Arch    string `json:"arch" yaml:"arch"`
	CPUs    int    `json:"cpus" yaml:"cpus"`
}

// ConfigInfo describes the config file and the effective chat settings.
type ConfigInfo struct {
	Path          string `json:"path" yaml:"path"`
	Exists        bool   `json:"exists" yaml:"exists"`
	FileSizeBytes int64  `json:"fileSizeBytes,omitempty" yaml:"fileSizeBytes,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	ParseError    string `json:"parseError,omitempty" yaml:"parseError,omitempty"`
	ChatID        string `json:"chatId,omitempty" yaml:"chatId,omitempty"`
	LogFile       string `json:"logFile,omitempty" yaml:"logFile,omitempty"`
}

// ServerInfo is the outcome of a single dial to the chat server.
type ServerInfo struct {
	URL       string `json:"url" yaml:"url"`
	TokenSet  bool   `json:"tokenSet" yaml:"tokenSet"`
	Probed    bool   `json:"probed" yaml:"probed"`
	Reachable bool   `json:"reachable" yaml:"reachable"`
	LatencyMS int64  `json:"latencyMS,omitempty" yaml:"latencyMS,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}
