// The categorize command runs one pass of the AI categorization loop: it
// launches the accountant server from config/mcp_servers.json, pulls the
// uncategorized backlog through its tools, prompts the categorizer agent
// and applies the suggestions via update_transaction_account.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/agent"
	"agentic_accounting/pkg/core/categorize"
	"agentic_accounting/pkg/core/config"
	mcpclient "agentic_accounting/pkg/mcp/client"
)

const accountantServer = "accountant"

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env not found, using process environment")
	}
	logrus.SetOutput(os.Stderr)

	if err := run(); err != nil {
		logrus.Errorf("categorize: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	servers, err := config.LoadMCPServers(cfg.MCPServersFile())
	if err != nil {
		return err
	}
	spec, ok := servers[accountantServer]
	if !ok {
		return fmt.Errorf("no %q server in %s", accountantServer, cfg.MCPServersFile())
	}

	agentConfig, err := agent.LoadConfig(cfg.AgentsFile())
	if err != nil {
		return err
	}
	manager := agent.NewManager(agentConfig)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mcpclient.Launch(ctx, accountantServer, spec.Command, spec.Args, spec.Env)
	if err != nil {
		return err
	}
	defer client.Close()
	if _, err := client.Initialize(ctx, "categorize", "1.0.0"); err != nil {
		return err
	}

	report, err := categorize.New(client, manager, agent.RoleCategorizer).Run(ctx)
	if err != nil {
		return err
	}

	rendered, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(rendered))
	return nil
}
