// The terminal command serves guarded command execution over stdio. The
// blacklist, working-directory jail and output caps come from the
// TERMINAL_SERVER_* environment.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/config"
	"agentic_accounting/pkg/core/terminal"
	"agentic_accounting/pkg/mcp/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env not found, using process environment")
	}
	logrus.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := terminal.NewServer(config.Load())
	if err := server.ServeStdio(ctx, srv); err != nil {
		logrus.Errorf("terminal server: %v", err)
		os.Exit(1)
	}
}
