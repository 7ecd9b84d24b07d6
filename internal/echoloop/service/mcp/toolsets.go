package mcp

import (
	"context"
	"fmt"

	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
	"github.com/kiosk404/echoloop/pkg/logger"
)

// ToolSetPrefix prefixes the tool set name of every MCP server.
const ToolSetPrefix = "mcp:"

// ToolSetName returns the tool set name of a server.
func ToolSetName(server string) string {
	return ToolSetPrefix + server
}

// RegisterToolSets adds one tool set per connected server to catalog and
// returns the registered names. Tools that cannot be converted are skipped.
func RegisterToolSets(ctx context.Context, mgr Manager, catalog *tool.ToolSetRegistry) ([]string, error) {
	if mgr == nil || catalog == nil {
		return nil, nil
	}

	var registered []string
	for _, server := range mgr.ServerNames() {
		if mgr.ServerStatus(server) != ServerStatusConnected {
			continue
		}

		var tools []*tool.Tool
		for _, bt := range mgr.GetToolsByServer(server) {
			t, err := tool.FromEinoTool(ctx, bt, ToolSetName(server))
			if err != nil {
				logger.Warn("[MCP] server %q: skipping tool: %v", server, err)
				continue
			}
			tools = append(tools, t)
		}
		if len(tools) == 0 {
			continue
		}

		err := catalog.Register(tool.ToolSet{
			Name:        ToolSetName(server),
			Description: fmt.Sprintf("Tools served by the %s MCP server", server),
			Tools:       func() []*tool.Tool { return tools },
		})
		if err != nil {
			return registered, err
		}
		registered = append(registered, ToolSetName(server))
		logger.Info("[MCP] registered tool set %s with %d tools", ToolSetName(server), len(tools))
	}
	return registered, nil
}
