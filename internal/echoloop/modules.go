package echoloop

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/gg/gptr"
	"github.com/kiosk404/echoloop/internal/echoloop/config"
	"github.com/kiosk404/echoloop/internal/echoloop/options"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity"
	activityService "github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm"
	llmEntity "github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/mcp"
	"github.com/kiosk404/echoloop/pkg/logger"
)

// Modules holds the initialized service modules shared by the server and
// the one-shot CLI commands.
type Modules struct {
	LLM      *llm.Module
	MCP      *mcp.Module
	Activity *activity.Module
}

// NewModules initializes the LLM, MCP and Activity modules in dependency order.
func NewModules(ctx context.Context, cfg *config.Config) (*Modules, error) {
	llmCfg := &llm.Config{
		ModelOptions: cfg.Models,
	}
	llmModule, err := llmCfg.Complete().New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM module: %w", err)
	}
	logger.Info("[Echoloop] LLM module initialized")

	// MCP servers come from a standalone file (Claude Desktop layout).
	mcpFileCfg, err := mcp.LoadMCPConfig(cfg.MCP.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load MCP config from %q: %w", cfg.MCP.ConfigFile, err)
	}
	mcpCfg := &mcp.Config{
		MCPConfig:      mcpFileCfg,
		ConnectTimeout: cfg.MCP.ConnectTimeout,
	}
	mcpModule, err := mcpCfg.Complete().New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP module: %w", err)
	}
	logger.Info("[Echoloop] MCP module initialized")

	activityModule, err := ActivityConfig(cfg).Complete().New(ctx, activity.Dependencies{
		LLM: llmModule,
		MCP: mcpModule.Manager,
	})
	if err != nil {
		_ = mcpModule.Close()
		return nil, fmt.Errorf("failed to create Activity module: %w", err)
	}
	logger.Info("[Echoloop] Activity module initialized")

	return &Modules{
		LLM:      llmModule,
		MCP:      mcpModule,
		Activity: activityModule,
	}, nil
}

// ActivityConfig maps the activity, history and store options onto the
// Activity module config.
func ActivityConfig(cfg *config.Config) *activity.Config {
	return &activity.Config{
		MaxIterations:          cfg.Activity.MaxIterations,
		Timeout:                cfg.Activity.Timeout,
		MaxHistoryLength:       cfg.History.MaxLength,
		AutoSummarizeThreshold: cfg.History.AutoSummarizeThreshold,
		OracleType:             cfg.Activity.Oracle,
		Model:                  cfg.Activity.Model,
		OracleParams:           oracleParams(cfg.Activity),
		Summarizer:             cfg.Activity.Summarizer,
		DefaultToolSet:         cfg.Activity.DefaultToolSet,
		StoreType:              cfg.Store.Type,
		BoltDBPath:             cfg.Store.BoltDBPath,
	}
}

// oracleParams returns nil when nothing is tuned so the oracle shares the
// cached model.
func oracleParams(o *options.ActivityOptions) *llmEntity.LLMParams {
	p := &llmEntity.LLMParams{JSONOutput: o.JSONOutput}
	if o.Temperature >= 0 {
		p.Temperature = gptr.Of(o.Temperature)
	}
	if p.IsZero() {
		return nil
	}
	return p
}

// Limits returns the live activity limits described by cfg.
func Limits(cfg *config.Config) activityService.Limits {
	return ActivityConfig(cfg).Complete().Limits()
}

// Close releases the modules in reverse dependency order.
func (m *Modules) Close() error {
	var errs []error
	if m.Activity != nil {
		errs = append(errs, m.Activity.Close())
	}
	if m.MCP != nil {
		errs = append(errs, m.MCP.Close())
	}
	return errors.Join(errs...)
}
