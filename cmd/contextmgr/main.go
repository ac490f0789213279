// The contextmgr command serves the working-context store over stdio.
// Summarization uses the summarizer agent's LLM provider when an API key
// is available and falls back to the deterministic digest otherwise.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/agent"
	"agentic_accounting/pkg/core/config"
	"agentic_accounting/pkg/core/contextmgr"
	"agentic_accounting/pkg/mcp/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env not found, using process environment")
	}
	logrus.SetOutput(os.Stderr)

	cfg := config.Load()
	agentConfig, err := agent.LoadConfig(cfg.AgentsFile())
	if err != nil {
		logrus.Errorf("load agents config: %v", err)
		os.Exit(1)
	}
	provider := agent.NewManager(agentConfig).GetProvider(agent.RoleSummarizer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ServeStdio(ctx, contextmgr.NewServer(provider)); err != nil {
		logrus.Errorf("context-manager server: %v", err)
		os.Exit(1)
	}
}
