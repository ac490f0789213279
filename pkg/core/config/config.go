// Package config resolves process configuration from the environment.
// Tool servers take no positional arguments; everything is driven by
// AI_ACCOUNTING_* variables plus the MCP server registry file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config is the resolved environment for one process.
type Config struct {
	// CompanyFile, when set, switches persistence to the unified
	// company-file document instead of the legacy four-file layout.
	CompanyFile string
	// InputsDir holds accounts.json, supplier_list.json,
	// accounting_rules.txt and the statements drop directory.
	InputsDir string
	// DataDir holds general_journal.json and generated reports.
	DataDir string
	// ConfigDir holds mcp_servers.json and agents.yaml.
	ConfigDir string
	// BackupsDir receives timestamped journal snapshots and ZIP bundles.
	BackupsDir string
	// StatementsDir is scanned by the importer for bank CSV files.
	StatementsDir string
	// GSTClearingCode absorbs the GST component of split transactions.
	GSTClearingCode string
	// ValidateOnLoad re-checks every journal entry against the chart
	// during bulk load. Off by default for throughput.
	ValidateOnLoad bool

	// Terminal server policy.
	TerminalAllowedDir       string
	TerminalDefaultTimeoutMS int
	TerminalMaxOutputBytes   int
	TerminalHistoryLimit     int
}

// Load reads the environment and applies defaults. It never fails: absent
// variables fall back to the documented layout rooted at the working
// directory.
func Load() *Config {
	inputs := getEnv("AI_ACCOUNTING_INPUTS_DIR", "inputs")
	cwd, _ := os.Getwd()
	return &Config{
		CompanyFile:     getEnv("AI_ACCOUNTING_COMPANY_FILE", ""),
		InputsDir:       inputs,
		DataDir:         getEnv("AI_ACCOUNTING_DATA_DIR", "data"),
		ConfigDir:       getEnv("AI_ACCOUNTING_CONFIG_DIR", "config"),
		BackupsDir:      getEnv("AI_ACCOUNTING_BACKUPS_DIR", "backups"),
		StatementsDir:   getEnv("AI_ACCOUNTING_STATEMENTS_DIR", filepath.Join(inputs, "statements")),
		GSTClearingCode: getEnv("GST_CLEARING_ACCOUNT_CODE", "506"),
		ValidateOnLoad:  getEnvBool("AI_ACCOUNTING_VALIDATE_ON_LOAD", false),

		TerminalAllowedDir:       getEnv("TERMINAL_SERVER_ALLOWED_DIR", cwd),
		TerminalDefaultTimeoutMS: getEnvInt("TERMINAL_SERVER_DEFAULT_TIMEOUT_MS", 30000),
		TerminalMaxOutputBytes:   getEnvInt("TERMINAL_SERVER_MAX_OUTPUT_BYTES", 1<<20),
		TerminalHistoryLimit:     getEnvInt("TERMINAL_SERVER_HISTORY_LIMIT", 100),
	}
}

// AccountsFile is the chart-of-accounts path in legacy mode.
func (c *Config) AccountsFile() string {
	return filepath.Join(c.InputsDir, "accounts.json")
}

// SuppliersFile is the supplier registry path in legacy mode.
func (c *Config) SuppliersFile() string {
	return filepath.Join(c.InputsDir, "supplier_list.json")
}

// RulesFile is the accounting-rules path in legacy mode.
func (c *Config) RulesFile() string {
	return filepath.Join(c.InputsDir, "accounting_rules.txt")
}

// JournalFile is the general-journal path in legacy mode.
func (c *Config) JournalFile() string {
	return filepath.Join(c.DataDir, "general_journal.json")
}

// ReportsDir receives plaintext audits written by regenerate_reports.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.DataDir, "reports")
}

// MCPServersFile is the tool-server launch registry.
func (c *Config) MCPServersFile() string {
	return filepath.Join(c.ConfigDir, "mcp_servers.json")
}

// AgentsFile is the agent→provider YAML map.
func (c *Config) AgentsFile() string {
	return filepath.Join(c.ConfigDir, "agents.yaml")
}

// UseCompanyFile reports whether unified company-file mode is active.
func (c *Config) UseCompanyFile() bool {
	return c.CompanyFile != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
