package echoloop

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiosk404/echoloop/internal/echoloop/config"
	"github.com/kiosk404/echoloop/pkg/logger"
)

// Run starts the API server with the loader's current config and serves
// until SIGINT or SIGTERM. Config file edits update the activity limits and
// the log level of the running server.
func Run(loader *config.Loader) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := createAPIServer(ctx, loader.Current())
	if err != nil {
		return err
	}

	loader.Watch(func(cfg *config.Config) {
		server.modules.Activity.Service.SetLimits(Limits(cfg))
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			logger.Warn("[Echoloop] ignoring log level %q: %v", cfg.Log.Level, err)
		}
	})

	return server.PrepareRun().Run(ctx)
}
