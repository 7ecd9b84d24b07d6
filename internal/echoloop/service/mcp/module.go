package mcp

import (
	"context"
	"time"

	"github.com/kiosk404/echoloop/pkg/logger"
)

type Config struct {
	MCPConfig *MCPConfig
	// ConnectTimeout bounds each server handshake. Zero waits forever.
	ConnectTimeout time.Duration
}

type CompletedConfig struct {
	*Config
}

func (c *Config) Complete() CompletedConfig {
	if c.MCPConfig == nil {
		c.MCPConfig = NewMCPConfig()
	}
	for _, srv := range c.MCPConfig.MCPServers {
		if srv != nil && srv.Transport == "" {
			srv.Transport = TransportStdio
		}
	}
	return CompletedConfig{c}
}

// Module owns the MCP server connections. Its tool sets are registered by
// RegisterToolSets.
type Module struct {
	Manager Manager
}

// New never fails on an unreachable server: the module starts with whatever
// tools the reachable servers expose.
func (c CompletedConfig) New(ctx context.Context) (*Module, error) {
	mgr := newManager(c.MCPConfig, c.ConnectTimeout)
	if err := mgr.Initialize(ctx); err != nil {
		logger.Warn("[MCP] no server usable: %v", err)
	}
	return &Module{Manager: mgr}, nil
}

func (m *Module) Close() error {
	if m == nil || m.Manager == nil {
		return nil
	}
	return m.Manager.Close()
}
