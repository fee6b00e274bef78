// Command trendline renders conversation-trend fixtures into chart payloads,
// inspects them in the terminal and serves a local preview API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rewired-gh/trendline/internal/logger"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()
	logger.Sync()
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
