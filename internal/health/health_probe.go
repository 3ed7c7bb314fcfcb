package health

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// probeServer opens and cleanly closes one WebSocket to the chat server.
func probeServer(ctx context.Context, info *ServerInfo, token string, timeout time.Duration) {
	info.Probed = true

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := &websocket.DialOptions{}
	if token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + token}}
	}

	start := time.Now()
	ws, _, err := websocket.Dial(ctx, info.URL, opts)
	if err != nil {
		info.Error = err.Error()
		return
	}
	info.LatencyMS = time.Since(start).Milliseconds()
	info.Reachable = true
	_ = ws.Close(websocket.StatusNormalClosure, "probe")
}
