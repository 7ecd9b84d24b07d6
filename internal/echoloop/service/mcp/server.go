package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	mcpTool "github.com/cloudwego/eino-ext/components/tool/mcp"
	"github.com/cloudwego/eino/components/tool"
	"github.com/kiosk404/echoloop/pkg/logger"
	"github.com/kiosk404/echoloop/pkg/version"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ServerStatus is the connection state of an MCP server.
type ServerStatus int

const (
	ServerStatusDisconnected ServerStatus = iota
	ServerStatusConnecting
	ServerStatusConnected
	ServerStatusError
)

func (s ServerStatus) String() string {
	switch s {
	case ServerStatusDisconnected:
		return "Disconnected"
	case ServerStatusConnecting:
		return "Connecting"
	case ServerStatusConnected:
		return "Connected"
	case ServerStatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Dialer opens a started, not yet initialized client.
type Dialer func(ctx context.Context) (*client.Client, error)

// MCPServer is one MCP server connection and its discovered tools.
type MCPServer struct {
	name   string
	config *ServerConfig
	dial   Dialer
	// handshake bounds Initialize and tool discovery. The transport itself
	// lives as long as the ctx passed to Connect.
	handshake time.Duration

	mu     sync.RWMutex
	client *client.Client
	tools  []tool.BaseTool
	status ServerStatus
	err    error
}

// NewMCPServer creates a server that dials according to cfg.
func NewMCPServer(name string, cfg *ServerConfig) *MCPServer {
	s := &MCPServer{
		name:   name,
		config: cfg,
		status: ServerStatusDisconnected,
	}
	s.dial = s.dialTransport
	return s
}

// NewMCPServerWithDialer creates a server that connects through dial, for
// transports that are not configured from a file (such as in-process servers).
func NewMCPServerWithDialer(name string, cfg *ServerConfig, dial Dialer) *MCPServer {
	s := NewMCPServer(name, cfg)
	s.dial = dial
	return s
}

func (s *MCPServer) Name() string {
	return s.name
}

func (s *MCPServer) Config() *ServerConfig {
	return s.config
}

func (s *MCPServer) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the last connection error.
func (s *MCPServer) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Tools returns the discovered tools. It is empty until connected.
func (s *MCPServer) Tools() []tool.BaseTool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]tool.BaseTool, len(s.tools))
	copy(result, s.tools)
	return result
}

// Connect performs the MCP handshake and discovers tools.
func (s *MCPServer) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = ServerStatusConnecting
	s.err = nil

	cli, err := s.dial(ctx)
	if err != nil {
		return s.fail(cli, fmt.Errorf("MCP server %q: failed to create client: %w", s.name, err))
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "echoloop",
		Version: version.Get().GitVersion,
	}
	hctx := ctx
	if s.handshake > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, s.handshake)
		defer cancel()
	}
	if _, err := cli.Initialize(hctx, initReq); err != nil {
		return s.fail(cli, fmt.Errorf("MCP server %q: failed to initialize: %w", s.name, err))
	}

	var filter []string
	if s.config != nil {
		filter = s.config.ToolFilter
	}
	tools, err := mcpTool.GetTools(hctx, &mcpTool.Config{
		Cli:          cli,
		ToolNameList: filter,
	})
	if err != nil {
		return s.fail(cli, fmt.Errorf("MCP server %q: failed to get tools: %w", s.name, err))
	}

	s.client = cli
	s.tools = tools
	s.status = ServerStatusConnected
	logger.Info("[MCP] server %q connected with %d tools", s.name, len(tools))
	return nil
}

// fail must be called with s.mu held.
func (s *MCPServer) fail(cli *client.Client, err error) error {
	if cli != nil {
		_ = cli.Close()
	}
	s.status = ServerStatusError
	s.err = err
	return err
}

func (s *MCPServer) Reconnect(ctx context.Context) error {
	s.Close()
	return s.Connect(ctx)
}

// Close releases the connection.
func (s *MCPServer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Warn("[MCP] server %q: failed to close client: %v", s.name, err)
		}
		s.client = nil
	}
	s.tools = nil
	s.status = ServerStatusDisconnected
	s.err = nil
}

// dialTransport creates the configured client. Stdio clients start their
// subprocess on creation, the HTTP based ones are started here.
func (s *MCPServer) dialTransport(ctx context.Context) (*client.Client, error) {
	if s.config == nil {
		return nil, fmt.Errorf("no configuration")
	}
	var (
		cli *client.Client
		err error
	)
	switch s.config.Transport {
	case TransportStdio, "":
		return client.NewStdioMCPClient(s.config.Command, s.config.Env, s.config.Args...)
	case TransportSSE:
		cli, err = client.NewSSEMCPClient(s.config.URL)
	case TransportStreamableHTTP:
		cli, err = client.NewStreamableHttpClient(s.config.URL)
	default:
		return nil, fmt.Errorf("unknown transport: %s", s.config.Transport)
	}
	if err != nil {
		return nil, err
	}
	if err := cli.Start(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("failed to start %s transport: %w", s.config.Transport, err)
	}
	return cli, nil
}
