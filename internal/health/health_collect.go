package health

import (
	"context"
	"runtime"
	"time"
)

// Collect returns a health snapshot for the current process.
func Collect(ctx context.Context, opts Options) Snapshot {
	opts = opts.normalize()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Snapshot{
		Status:     "healthy",
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryInfo{
			AllocMB:      float64(mem.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(mem.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(mem.Sys) / 1024 / 1024,
			NumGC:        mem.NumGC,
		},
		Runtime: RuntimeInfo{
			Version: runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			CPUs:    runtime.NumCPU(),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if opts.ConfigPath != "" {
		s.Config = inspectConfigFile(opts.ConfigPath)
		s.Config.ChatID = opts.ChatID
		s.Config.LogFile = opts.LogFile
		if s.Config.ParseError != "" {
			s.Status = "degraded"
		}
	}

	if opts.ServerURL != "" {
		s.Server = &ServerInfo{URL: opts.ServerURL, TokenSet: opts.Token != ""}
		if opts.Probe {
			probeServer(ctx, s.Server, opts.Token, opts.ProbeTimeout)
			if !s.Server.Reachable {
				s.Status = "degraded"
			}
		}
	}

	return s
}
