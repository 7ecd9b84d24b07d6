package deepseek

import (
	"context"

	"github.com/bytedance/gg/gptr"
	einoDeepseek "github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/helper"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/spi"
	"github.com/kiosk404/echoloop/internal/pkg/options"
)

const Name = "deepseek"

const defaultTemperature = 0.7

var _ spi.ChatModelPlugin = (*Plugin)(nil)

type Plugin struct {
	helper.BasePlugin
}

func New() spi.ProviderPlugin {
	return &Plugin{BasePlugin: helper.BasePlugin{PluginName: Name}}
}

// BuildChatModel goes through the DeepSeek SDK rather than the OpenAI
// adapter because only it exposes the JSON object response mode.
func (p *Plugin) BuildChatModel(ctx context.Context, instance *entity.ModelInstance, provider *entity.ModelProvider, params *entity.LLMParams) (model.BaseChatModel, error) {
	conn, err := helper.Conn(instance, provider)
	if err != nil {
		return nil, err
	}

	conf := &einoDeepseek.ChatModelConfig{
		BaseURL:            conn.BaseURL,
		APIKey:             conn.APIKey,
		Model:              conn.Model,
		Temperature:        params.TemperatureOr(defaultTemperature),
		MaxTokens:          helper.MaxTokens(instance, params),
		ResponseFormatType: einoDeepseek.ResponseFormatTypeText,
	}
	if params.WantsJSON() {
		conf.ResponseFormatType = einoDeepseek.ResponseFormatTypeJSONObject
	}
	if params != nil {
		conf.FrequencyPenalty = gptr.Indirect(params.FrequencyPenalty)
		conf.PresencePenalty = gptr.Indirect(params.PresencePenalty)
	}
	return einoDeepseek.NewChatModel(ctx, conf)
}

func (p *Plugin) DefaultConfig() *options.ProviderConfig {
	return &options.ProviderConfig{
		BaseURL: "https://api.deepseek.com/v1",
		APIKey:  "${DEEPSEEK_API_KEY}",
		API:     "openai-completions",
		Models: []options.ModelDefinition{
			{ID: "deepseek-chat", Name: "DeepSeek V3", Input: []string{"text"}, ContextWindow: 65536, MaxTokens: 8192, Cost: options.ModelCost{Input: 0.27, Output: 1.1, CacheRead: 0.07}},
			{ID: "deepseek-reasoner", Name: "DeepSeek R1", Reasoning: true, Input: []string{"text"}, ContextWindow: 65536, MaxTokens: 8192, Cost: options.ModelCost{Input: 0.55, Output: 2.19, CacheRead: 0.14}},
		},
	}
}
