package openai

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/helper"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/spi"
	"github.com/kiosk404/echoloop/internal/pkg/options"
)

const Name = "openai"

var _ spi.ChatModelPlugin = (*Plugin)(nil)

type Plugin struct {
	helper.BasePlugin
}

func New() spi.ProviderPlugin {
	return &Plugin{
		BasePlugin: helper.BasePlugin{PluginName: Name},
	}
}

func (p *Plugin) BuildChatModel(ctx context.Context, instance *entity.ModelInstance, provider *entity.ModelProvider, params *entity.LLMParams) (model.BaseChatModel, error) {
	return helper.NewOpenAICompatibleChatModel(ctx, instance, provider, params)
}

func (p *Plugin) DefaultConfig() *options.ProviderConfig {
	return &options.ProviderConfig{
		BaseURL: "https://api.openai.com/v1",
		APIKey:  "${OPENAI_API_KEY}",
		API:     "openai-completions",
		Models: []options.ModelDefinition{
			{ID: "gpt-4o", Name: "GPT-4o", Input: []string{"text", "image"}, ContextWindow: 128000, MaxTokens: 16384, Cost: options.ModelCost{Input: 2.5, Output: 10, CacheRead: 1.25}},
			{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Input: []string{"text", "image"}, ContextWindow: 128000, MaxTokens: 16384, Cost: options.ModelCost{Input: 0.15, Output: 0.6, CacheRead: 0.075}},
		},
	}
}
