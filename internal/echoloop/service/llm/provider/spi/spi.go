package spi

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/pkg/options"
)

// ProviderPlugin describes an LLM provider and turns its configuration into entities.
type ProviderPlugin interface {
	Name() string
	// DefaultConfig returns the built-in configuration, with the API key as an
	// environment reference.
	DefaultConfig() *options.ProviderConfig
	BuildProvider(cfg *options.ProviderConfig) (*entity.ModelProvider, error)
	BuildModels(provider *entity.ModelProvider, cfg *options.ProviderConfig) ([]*entity.ModelInstance, error)
}

// ChatModelPlugin extends ProviderPlugin with the ability to build Eino
// BaseChatModel instances. params may be nil, in which case provider
// defaults are used.
type ChatModelPlugin interface {
	ProviderPlugin
	BuildChatModel(ctx context.Context, instance *entity.ModelInstance, provider *entity.ModelProvider, params *entity.LLMParams) (model.BaseChatModel, error)
}

// PluginFactory is a function that creates a ProviderPlugin instance.
type PluginFactory func() ProviderPlugin
