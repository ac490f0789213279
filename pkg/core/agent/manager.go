// Package agent maps agent roles (categorizer, summarizer) to LLM
// providers via config/agents.yaml.
package agent

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"agentic_accounting/pkg/core/llm"
)

// Config is the parsed agents.yaml.
type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

// AgentConfig is one role's settings.
type AgentConfig struct {
	Provider    string `yaml:"provider"` // optional override
	Model       string `yaml:"model"`    // optional model override
	Description string `yaml:"description"`
}

// Role names used by this system.
const (
	RoleCategorizer = "categorizer"
	RoleSummarizer  = "summarizer"
)

// Manager resolves providers per role.
type Manager struct {
	config    Config
	providers map[string]llm.Provider
	log       *logrus.Entry
}

// NewManager builds a manager over the known provider set.
func NewManager(config Config) *Manager {
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"gemini":        &llm.GeminiProvider{},
			"gemini-legacy": &llm.GeminiLegacyProvider{},
			"deepseek":      &llm.DeepSeekProvider{},
		},
		log: logrus.WithField("component", "agent"),
	}
}

// LoadConfig reads agents.yaml. A missing file yields the default config
// (gemini for everything) rather than an error.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{ActiveProvider: "gemini"}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read agents config %s: %w", path, err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse agents config %s: %w", path, err)
	}
	if config.ActiveProvider == "" {
		config.ActiveProvider = "gemini"
	}
	return config, nil
}

// GetProvider resolves the provider for a role: per-role override first,
// then the global active provider, then gemini.
func (m *Manager) GetProvider(role string) llm.Provider {
	if agentConfig, ok := m.config.Agents[role]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p
		}
		m.log.Warnf("role %s names unknown provider %q, falling back", role, agentConfig.Provider)
	}
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}
	return m.providers["gemini"]
}

// GetProviderByName resolves a provider by its registry name, or nil.
func (m *Manager) GetProviderByName(name string) llm.Provider {
	return m.providers[name]
}

// ExecutePrompt adapts and sends one prompt through the role's provider.
func (m *Manager) ExecutePrompt(ctx context.Context, role, rawPrompt, rawSystemPrompt string, options map[string]interface{}) (string, error) {
	provider := m.GetProvider(role)
	if options == nil {
		options = map[string]interface{}{}
	}
	if agentConfig, ok := m.config.Agents[role]; ok && agentConfig.Model != "" {
		if _, set := options["model"]; !set {
			options["model"] = agentConfig.Model
		}
	}
	m.log.Debugf("role %s using provider %T", role, provider)
	return provider.GenerateResponse(ctx, rawPrompt, provider.AdaptInstructions(rawSystemPrompt), options)
}
