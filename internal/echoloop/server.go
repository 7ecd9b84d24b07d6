package echoloop

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kiosk404/echoloop/internal/echoloop/config"
	"github.com/kiosk404/echoloop/pkg/logger"
)

type apiServer struct {
	cfg     *config.Config
	modules *Modules
	engine  *gin.Engine
	server  *http.Server
}

type preparedAPIServer struct {
	*apiServer
}

func createAPIServer(ctx context.Context, cfg *config.Config) (*apiServer, error) {
	gin.SetMode(cfg.Server.Mode)

	modules, err := NewModules(ctx, cfg)
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	return &apiServer{
		cfg:     cfg,
		modules: modules,
		engine:  engine,
		server: &http.Server{
			Addr:    cfg.Server.Address(),
			Handler: engine,
		},
	}, nil
}

func (s *apiServer) PrepareRun() preparedAPIServer {
	initRouter(s.engine, &routerDeps{
		activityService: s.modules.Activity.Service,
		llmManager:      s.modules.LLM.Manager,
		serverOptions:   s.cfg.Server,
		authOptions:     s.cfg.Auth,
	})
	return preparedAPIServer{s}
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout and closes the modules.
func (s preparedAPIServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		_ = s.modules.Close()
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s preparedAPIServer) serve(ctx context.Context, ln net.Listener) error {
	logger.Info("[Echoloop] API server listening on http://%s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("[Echoloop] shutting down API server...")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("[Echoloop] graceful shutdown failed: %v", err)
	}
	if err := s.modules.Close(); err != nil {
		logger.Warn("[Echoloop] failed to close modules: %v", err)
	}
	return serveErr
}
