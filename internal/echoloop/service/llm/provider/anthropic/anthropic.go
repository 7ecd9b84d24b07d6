package anthropic

import (
	"context"

	"github.com/bytedance/gg/gptr"
	einoClaude "github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/helper"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/spi"
	"github.com/kiosk404/echoloop/internal/pkg/options"
)

const Name = "anthropic"

var _ spi.ChatModelPlugin = (*Plugin)(nil)

type Plugin struct {
	helper.BasePlugin
}

func New() spi.ProviderPlugin {
	return &Plugin{BasePlugin: helper.BasePlugin{PluginName: Name}}
}

// BuildChatModel always sends max_tokens, which the Messages API requires.
func (p *Plugin) BuildChatModel(ctx context.Context, instance *entity.ModelInstance, provider *entity.ModelProvider, params *entity.LLMParams) (model.BaseChatModel, error) {
	conn, err := helper.Conn(instance, provider)
	if err != nil {
		return nil, err
	}

	cfg := &einoClaude.Config{
		APIKey:    conn.APIKey,
		Model:     conn.Model,
		MaxTokens: helper.MaxTokens(instance, params),
	}
	if conn.BaseURL != "" {
		cfg.BaseURL = gptr.Of(conn.BaseURL)
	}
	if params != nil {
		cfg.Temperature = params.Temperature
		cfg.TopP = params.TopP
	}
	return einoClaude.NewChatModel(ctx, cfg)
}

func (p *Plugin) DefaultConfig() *options.ProviderConfig {
	return &options.ProviderConfig{
		BaseURL: "https://api.anthropic.com/v1",
		APIKey:  "${ANTHROPIC_API_KEY}",
		API:     "anthropic-messages",
		Models: []options.ModelDefinition{
			{ID: "claude-sonnet-4-5", Name: "Claude Sonnet 4.5", Reasoning: true, Input: []string{"text"}, ContextWindow: 200000, MaxTokens: 64000, Cost: options.ModelCost{Input: 3, Output: 15}},
			{ID: "claude-haiku-4-5", Name: "Claude Haiku 4.5", Input: []string{"text"}, ContextWindow: 200000, MaxTokens: 64000, Cost: options.ModelCost{Input: 1, Output: 5}},
		},
	}
}
