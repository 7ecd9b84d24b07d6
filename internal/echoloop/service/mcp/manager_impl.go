package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/kiosk404/echoloop/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// maxParallelDials bounds the handshakes run at once. Stdio servers are
// subprocesses, so a long server list would otherwise fork them all together.
const maxParallelDials = 4

// managerImpl keeps the servers in a fixed, sorted order. The set of servers
// never changes after construction, so reads need no lock.
type managerImpl struct {
	byName map[string]*MCPServer
	order  []*MCPServer
}

var _ Manager = (*managerImpl)(nil)

func newManager(cfg *MCPConfig, handshake time.Duration) *managerImpl {
	names := cfg.Names()
	m := &managerImpl{
		byName: make(map[string]*MCPServer, len(names)),
		order:  make([]*MCPServer, 0, len(names)),
	}
	for _, name := range names {
		srv := NewMCPServer(name, cfg.MCPServers[name])
		srv.handshake = handshake
		m.add(srv)
	}
	return m
}

// add appends srv, replacing a server with the same name in place.
func (m *managerImpl) add(srv *MCPServer) {
	if old, ok := m.byName[srv.Name()]; ok {
		for i, s := range m.order {
			if s == old {
				m.order[i] = srv
			}
		}
	} else {
		m.order = append(m.order, srv)
	}
	m.byName[srv.Name()] = srv
}

// Initialize dials every server. A server that fails keeps its error in
// Err and the call fails only if no server connected.
func (m *managerImpl) Initialize(ctx context.Context) error {
	if len(m.order) == 0 {
		logger.Info("[MCP] no MCP servers configured, skipping initialization")
		return nil
	}
	logger.Info("[MCP] connecting to %d MCP servers...", len(m.order))

	var g errgroup.Group
	g.SetLimit(maxParallelDials)
	for _, srv := range m.order {
		g.Go(func() error {
			if err := srv.Connect(ctx); err != nil {
				logger.Warn("[MCP] server %q failed to connect: %v", srv.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for _, srv := range m.order {
		if err := srv.Err(); err != nil {
			failures = append(failures, err)
		}
	}
	connected := len(m.order) - len(failures)
	logger.Info("[MCP] %d/%d servers connected", connected, len(m.order))

	if connected == 0 {
		return fmt.Errorf("all MCP servers failed to connect: %w", errors.Join(failures...))
	}
	return nil
}

func (m *managerImpl) GetAllTools() []tool.BaseTool {
	var all []tool.BaseTool
	for _, srv := range m.order {
		if srv.Status() == ServerStatusConnected {
			all = append(all, srv.Tools()...)
		}
	}
	return all
}

func (m *managerImpl) GetToolsByServer(serverName string) []tool.BaseTool {
	if srv, ok := m.byName[serverName]; ok {
		return srv.Tools()
	}
	return nil
}

func (m *managerImpl) Reconnect(ctx context.Context, serverName string) error {
	srv, ok := m.byName[serverName]
	if !ok {
		return fmt.Errorf("MCP server %q is not configured", serverName)
	}
	return srv.Reconnect(ctx)
}

func (m *managerImpl) ServerNames() []string {
	names := make([]string, 0, len(m.order))
	for _, srv := range m.order {
		names = append(names, srv.Name())
	}
	return names
}

func (m *managerImpl) ServerStatus(serverName string) ServerStatus {
	if srv, ok := m.byName[serverName]; ok {
		return srv.Status()
	}
	return ServerStatusDisconnected
}

func (m *managerImpl) Close() error {
	for _, srv := range m.order {
		srv.Close()
	}
	if len(m.order) > 0 {
		logger.Info("[MCP] closed %d servers", len(m.order))
	}
	return nil
}
