package helper

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/pkg/options"
)

// BasePlugin implements the configuration half of spi.ProviderPlugin.
// Provider packages embed it and add BuildChatModel.
type BasePlugin struct {
	PluginName string
}

func (b *BasePlugin) Name() string {
	return b.PluginName
}

// DefaultConfig returns an empty configuration.
func (b *BasePlugin) DefaultConfig() *options.ProviderConfig {
	return &options.ProviderConfig{}
}

// BuildProvider constructs a ModelProvider from cfg.
func (b *BasePlugin) BuildProvider(cfg *options.ProviderConfig) (*entity.ModelProvider, error) {
	api, err := entity.ModelAPIFromString(cfg.API)
	if err != nil {
		return nil, fmt.Errorf("invalid API for provider %q: %w", b.PluginName, err)
	}

	authHeader := true
	if cfg.AuthHeader != nil {
		authHeader = *cfg.AuthHeader
	}

	return &entity.ModelProvider{
		ID:         b.PluginName,
		Name:       b.PluginName,
		ModelClass: entity.ModelClassFromString(b.PluginName),
		BaseURL:    cfg.BaseURL,
		APIKey:     ResolveEnvValue(cfg.APIKey),
		API:        api,
		AuthHeader: authHeader,
		Headers:    cfg.Headers,
		Enabled:    true,
	}, nil
}

// BuildModels constructs ModelInstance entities from the model definitions of cfg.
func (b *BasePlugin) BuildModels(p *entity.ModelProvider, cfg *options.ProviderConfig) ([]*entity.ModelInstance, error) {
	models := make([]*entity.ModelInstance, 0, len(cfg.Models))
	apiKey := ResolveEnvValue(cfg.APIKey)

	for _, def := range cfg.Models {
		if def.ID == "" {
			return nil, fmt.Errorf("provider %q: model id is required", p.ID)
		}
		inputTypes := def.Input
		if len(inputTypes) == 0 {
			inputTypes = []string{"text"}
		}
		name := def.Name
		if name == "" {
			name = def.ID
		}

		instance := &entity.ModelInstance{
			ModelID:    def.ID,
			ProviderID: p.ID,
			Name:       name,
			Connection: entity.Connection{
				BaseConnInfo: &entity.BaseConnectionInfo{
					BaseURL: cfg.BaseURL,
					APIKey:  apiKey,
					Model:   def.ID,
				},
			},
			Cost: entity.ModelCostInfo{
				Input:      def.Cost.Input,
				Output:     def.Cost.Output,
				CacheRead:  def.Cost.CacheRead,
				CacheWrite: def.Cost.CacheWrite,
			},
			ContextWindow: def.ContextWindow,
			MaxTokens:     def.MaxTokens,
			Reasoning:     def.Reasoning,
			InputTypes:    inputTypes,
			Status:        entity.ModelStatus_Ready,
		}
		ApplyProviderConnection(instance, p)
		models = append(models, instance)
	}
	return models, nil
}

// ApplyProviderConnection sets provider-specific connection fields on a model instance.
func ApplyProviderConnection(instance *entity.ModelInstance, p *entity.ModelProvider) {
	switch p.ModelClass {
	case entity.ModelClass_GPT:
		instance.Connection.Openai = &entity.OpenAIConnInfo{}
	case entity.ModelClass_Gemini:
		instance.Connection.Gemini = &entity.GeminiConnInfo{}
	}
	if instance.Reasoning {
		instance.Connection.BaseConnInfo.ThinkingType = entity.ThinkingType_Enable
	}
}

// ResolveEnvValue resolves a "${ENV_VAR}" reference. Other strings are returned as is.
func ResolveEnvValue(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	return s
}

// GenericPlugin serves configured providers that have no dedicated plugin.
// It talks to any OpenAI-compatible endpoint.
type GenericPlugin struct {
	BasePlugin
}

func NewGenericPlugin(name string) *GenericPlugin {
	return &GenericPlugin{BasePlugin: BasePlugin{PluginName: name}}
}

func (g *GenericPlugin) BuildChatModel(ctx context.Context, instance *entity.ModelInstance, provider *entity.ModelProvider, params *entity.LLMParams) (model.BaseChatModel, error) {
	return NewOpenAICompatibleChatModel(ctx, instance, provider, params)
}
