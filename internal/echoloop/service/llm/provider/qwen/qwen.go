package qwen

import (
	"context"

	"github.com/bytedance/gg/gptr"
	einoQwen "github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/helper"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/spi"
	"github.com/kiosk404/echoloop/internal/pkg/options"
)

const Name = "qwen"

var _ spi.ChatModelPlugin = (*Plugin)(nil)

type Plugin struct {
	helper.BasePlugin
}

func New() spi.ProviderPlugin {
	return &Plugin{BasePlugin: helper.BasePlugin{PluginName: Name}}
}

// BuildChatModel uses DashScope's own client: its compatible mode rejects
// enable_thinking on the OpenAI adapter.
func (p *Plugin) BuildChatModel(ctx context.Context, instance *entity.ModelInstance, provider *entity.ModelProvider, params *entity.LLMParams) (model.BaseChatModel, error) {
	conn, err := helper.Conn(instance, provider)
	if err != nil {
		return nil, err
	}

	conf := &einoQwen.ChatModelConfig{
		BaseURL:        conn.BaseURL,
		APIKey:         conn.APIKey,
		Model:          conn.Model,
		Temperature:    gptr.Of(params.TemperatureOr(0.7)),
		MaxTokens:      gptr.Of(helper.MaxTokens(instance, params)),
		ResponseFormat: helper.OpenAIResponseFormat(params),
		EnableThinking: params.ThinkingFor(conn.ThinkingType),
	}
	if params != nil {
		conf.TopP = params.TopP
		conf.FrequencyPenalty = params.FrequencyPenalty
		conf.PresencePenalty = params.PresencePenalty
	}
	return einoQwen.NewChatModel(ctx, conf)
}

func (p *Plugin) DefaultConfig() *options.ProviderConfig {
	return &options.ProviderConfig{
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		APIKey:  "${DASHSCOPE_API_KEY}",
		API:     "openai-completions",
		Models: []options.ModelDefinition{
			{ID: "qwen-plus", Name: "Qwen Plus", Input: []string{"text"}, ContextWindow: 131072, MaxTokens: 8192, Cost: options.ModelCost{Input: 0.4, Output: 1.2}},
			{ID: "qwen-max", Name: "Qwen Max", Input: []string{"text"}, ContextWindow: 32768, MaxTokens: 8192, Cost: options.ModelCost{Input: 1.6, Output: 6.4}},
		},
	}
}
