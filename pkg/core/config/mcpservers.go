package config

import (
	"fmt"
	"os"

	hjson "github.com/hjson/hjson-go/v4"
)

// ServerSpec is one tool-server launch descriptor from
// config/mcp_servers.json.
type ServerSpec struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

type mcpServersFile struct {
	Servers map[string]ServerSpec `json:"mcpServers"`
}

// LoadMCPServers reads the tool-server registry. The file is parsed as
// HJSON so hand-maintained configs may carry comments and trailing commas.
func LoadMCPServers(path string) (map[string]ServerSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mcp servers config: %w", err)
	}
	var parsed mcpServersFile
	if err := hjson.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse mcp servers config %s: %w", path, err)
	}
	if len(parsed.Servers) == 0 {
		return nil, fmt.Errorf("mcp servers config %s declares no servers", path)
	}
	return parsed.Servers, nil
}
