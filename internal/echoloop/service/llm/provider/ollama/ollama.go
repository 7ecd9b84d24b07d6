package ollama

import (
	"context"

	"github.com/bytedance/gg/gptr"
	einoOllama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/helper"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/spi"
	"github.com/kiosk404/echoloop/internal/pkg/options"
)

const (
	Name           = "ollama"
	defaultBaseURL = "http://127.0.0.1:11434"
)

var _ spi.ChatModelPlugin = (*Plugin)(nil)

type Plugin struct {
	helper.BasePlugin
}

func New() spi.ProviderPlugin {
	return &Plugin{BasePlugin: helper.BasePlugin{PluginName: Name}}
}

// BuildChatModel talks to a local Ollama daemon. Sampling settings travel
// in the request options; an unset one keeps the model file's value.
func (p *Plugin) BuildChatModel(ctx context.Context, instance *entity.ModelInstance, provider *entity.ModelProvider, params *entity.LLMParams) (model.BaseChatModel, error) {
	conn, err := helper.Conn(instance, provider)
	if err != nil {
		return nil, err
	}

	conf := &einoOllama.ChatModelConfig{
		BaseURL: defaultBaseURL,
		Model:   conn.Model,
		Options: sampling(params),
	}
	if conn.BaseURL != "" {
		conf.BaseURL = conn.BaseURL
	}
	if think := params.ThinkingFor(conn.ThinkingType); think != nil {
		conf.Thinking = &einoOllama.ThinkValue{Value: think}
	}
	return einoOllama.NewChatModel(ctx, conf)
}

func sampling(params *entity.LLMParams) *einoOllama.Options {
	opts := &einoOllama.Options{}
	if params == nil {
		return opts
	}
	opts.Temperature = gptr.Indirect(params.Temperature)
	opts.TopP = gptr.Indirect(params.TopP)
	opts.TopK = int(gptr.Indirect(params.TopK))
	opts.FrequencyPenalty = gptr.Indirect(params.FrequencyPenalty)
	opts.PresencePenalty = gptr.Indirect(params.PresencePenalty)
	return opts
}

// DefaultConfig lists no models; what is pulled locally differs per machine.
func (p *Plugin) DefaultConfig() *options.ProviderConfig {
	return &options.ProviderConfig{
		BaseURL: defaultBaseURL,
		APIKey:  "${OLLAMA_API_KEY}",
		API:     "ollama-generate",
		Models:  []options.ModelDefinition{},
	}
}
