package mcp

import (
	"fmt"
	"os"
	"sort"

	"github.com/kiosk404/echoloop/pkg/utils/json"
)

const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// MCPConfig holds the top-level MCP configuration, in the Claude Desktop
// mcp.json layout:
//
//	{
//	  "mcpServers": {
//	    "files": {
//	      "transport": "stdio",
//	      "command": "npx",
//	      "args": ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
//	    }
//	  }
//	}
type MCPConfig struct {
	MCPServers map[string]*ServerConfig `json:"mcpServers"`
}

// ServerConfig defines a single MCP server.
type ServerConfig struct {
	// Transport is "stdio" (default), "sse" or "streamable-http".
	Transport string `json:"transport,omitempty"`

	// Command, Args and Env launch a stdio server. Env entries are KEY=VALUE.
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	Env     []string `json:"env,omitempty"`

	// URL is the endpoint of an sse or streamable-http server.
	URL string `json:"url,omitempty"`

	// ToolFilter limits the exposed tools. Empty exposes all of them.
	ToolFilter []string `json:"toolFilter,omitempty"`
}

// LoadMCPConfig reads path. A missing file yields an empty config.
func LoadMCPConfig(path string) (*MCPConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMCPConfig(), nil
		}
		return nil, fmt.Errorf("failed to read MCP config file %q: %w", path, err)
	}

	cfg := &MCPConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse MCP config file %q: %w", path, err)
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]*ServerConfig)
	}
	return cfg, nil
}

func NewMCPConfig() *MCPConfig {
	return &MCPConfig{
		MCPServers: make(map[string]*ServerConfig),
	}
}

// Validate checks every server and fills the default transport.
func (c *MCPConfig) Validate() []error {
	var errs []error
	for _, name := range c.Names() {
		srv := c.MCPServers[name]
		if srv == nil {
			errs = append(errs, fmt.Errorf("mcpServers.%s: empty server definition", name))
			continue
		}
		if srv.Transport == "" {
			srv.Transport = TransportStdio
		}
		switch srv.Transport {
		case TransportStdio:
			if srv.Command == "" {
				errs = append(errs, fmt.Errorf("mcpServers.%s: command is required for stdio transport", name))
			}
		case TransportSSE, TransportStreamableHTTP:
			if srv.URL == "" {
				errs = append(errs, fmt.Errorf("mcpServers.%s: url is required for %s transport", name, srv.Transport))
			}
		default:
			errs = append(errs, fmt.Errorf("mcpServers.%s: unsupported transport %q", name, srv.Transport))
		}
	}
	return errs
}

// Names returns the configured server names, sorted.
func (c *MCPConfig) Names() []string {
	names := make([]string, 0, len(c.MCPServers))
	for name := range c.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
