// The accountant command serves the bookkeeping tool surface over stdio.
// It is launched by an MCP host per config/mcp_servers.json; all state
// comes from the AI_ACCOUNTING_* environment.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/accountant"
	"agentic_accounting/pkg/core/company"
	"agentic_accounting/pkg/core/config"
	"agentic_accounting/pkg/mcp/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env not found, using process environment")
	}
	// stdout is the protocol channel; everything human goes to stderr.
	logrus.SetOutput(os.Stderr)

	cfg := config.Load()
	books, err := company.Open(cfg)
	if err != nil {
		logrus.Errorf("open company books: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := accountant.New(books, cfg).Build()
	if err := server.ServeStdio(ctx, srv); err != nil {
		logrus.Errorf("accountant server: %v", err)
		os.Exit(1)
	}
}
