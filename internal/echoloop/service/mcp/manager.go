package mcp

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
)

// Manager owns the MCP server connections and exposes their tools.
type Manager interface {
	// Initialize connects to all configured servers.
	Initialize(ctx context.Context) error

	// GetAllTools returns the tools of every connected server.
	GetAllTools() []tool.BaseTool

	GetToolsByServer(serverName string) []tool.BaseTool

	// Reconnect closes a server connection and dials it again.
	Reconnect(ctx context.Context, serverName string) error

	// ServerNames returns the configured server names, sorted.
	ServerNames() []string

	ServerStatus(serverName string) ServerStatus

	// Close closes all connections.
	Close() error
}
