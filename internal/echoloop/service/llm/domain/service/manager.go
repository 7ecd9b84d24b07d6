package service

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
)

type ModelManager interface {
	// --- Provider Management ---

	RegisterProvider(ctx context.Context, provider *entity.ModelProvider) error
	GetProvider(ctx context.Context, providerID string) (*entity.ModelProvider, error)
	ListProviders(ctx context.Context) ([]*entity.ModelProvider, error)

	// --- Model Management ---

	// RegisterModel registers a model of an already registered provider.
	RegisterModel(ctx context.Context, instance *entity.ModelInstance) error
	GetModel(ctx context.Context, ref entity.ModelRef) (*entity.ModelInstance, error)
	ListModels(ctx context.Context) ([]*entity.ModelInstance, error)
	GetDefaultModel(ctx context.Context) (*entity.ModelInstance, error)
	SetDefaultModel(ctx context.Context, ref entity.ModelRef) error

	// --- ChatModel (Eino) ---

	// GetChatModel returns a cached Eino BaseChatModel for the given model reference.
	// Instances are lazily created with provider defaults and cached.
	// Callers needing tool-calling should assert ToolCallingChatModel on the result.
	GetChatModel(ctx context.Context, ref entity.ModelRef) (model.BaseChatModel, error)

	// BuildChatModel always creates a new instance with the given params.
	BuildChatModel(ctx context.Context, ref entity.ModelRef, params *entity.LLMParams) (model.BaseChatModel, error)

	GetDefaultChatModel(ctx context.Context) (model.BaseChatModel, error)

	// --- Lifecycle ---

	// Initialize registers the discovered and configured providers. Call it once.
	Initialize(ctx context.Context) error
}
