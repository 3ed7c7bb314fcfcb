// nagochat is a terminal client for a WebSocket chat backend.
package main

import (
	"os"

	"github.com/linanwx/nagochat/cmd"
	"github.com/linanwx/nagochat/logger"
)

func main() {
	code := cmd.Execute()
	_ = logger.Close()
	os.Exit(code)
}
