package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/service"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/pkg"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/store/inmemory"
	"github.com/kiosk404/echoloop/internal/pkg/options"
	"github.com/kiosk404/echoloop/pkg/logger"
)

// Config holds the configuration for the LLM module.
type Config struct {
	ModelOptions *options.ModelOptions

	// OutOfTreeRegistry registers provider plugins beyond the built-in ones.
	OutOfTreeRegistry *provider.Registry
}

// CompletedConfig is the validated and completed configuration.
type CompletedConfig struct {
	*Config
}

// Complete validates and fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.ModelOptions == nil {
		c.ModelOptions = options.NewModelOptions()
	}
	return CompletedConfig{c}
}

// Module is the top-level LLM module.
type Module struct {
	Manager  service.ModelManager
	Registry *provider.Registry
}

// New builds the provider registry, the in-memory stores and the model
// manager, then runs provider discovery.
func (c CompletedConfig) New(ctx context.Context) (*Module, error) {
	logger.InfoX(pkg.ModuleName, "[LLM] creating LLM module...")

	registry := provider.NewInTreeRegistry()
	if c.OutOfTreeRegistry != nil {
		if err := registry.Extend(c.OutOfTreeRegistry); err != nil {
			return nil, fmt.Errorf("failed to merge out-of-tree providers: %w", err)
		}
	}
	logger.InfoX(pkg.ModuleName, "[LLM] provider registry initialized with %d plugins", registry.Len())

	manager := service.NewModelManager(c.ModelOptions, inmemory.NewModelStore(), inmemory.NewProviderStore(), registry)
	if err := manager.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize LLM module: %w", err)
	}

	return &Module{
		Manager:  manager,
		Registry: registry,
	}, nil
}

// ChatModel returns a cached Eino BaseChatModel for ref.
func (m *Module) ChatModel(ctx context.Context, ref entity.ModelRef) (model.BaseChatModel, error) {
	return m.Manager.GetChatModel(ctx, ref)
}

// BuildChatModel builds a fresh, uncached Eino BaseChatModel. params may be nil.
func (m *Module) BuildChatModel(ctx context.Context, ref entity.ModelRef, params *entity.LLMParams) (model.BaseChatModel, error) {
	return m.Manager.BuildChatModel(ctx, ref, params)
}

// DefaultChatModel returns the Eino BaseChatModel for the default model.
func (m *Module) DefaultChatModel(ctx context.Context) (model.BaseChatModel, error) {
	return m.Manager.GetDefaultChatModel(ctx)
}
