package gemini

import (
	"context"
	"fmt"

	einoGemini "github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/helper"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/spi"
	"github.com/kiosk404/echoloop/internal/pkg/options"
	"google.golang.org/genai"
)

const Name = "gemini"

var _ spi.ChatModelPlugin = (*Plugin)(nil)

type Plugin struct {
	helper.BasePlugin
}

func New() spi.ProviderPlugin {
	return &Plugin{BasePlugin: helper.BasePlugin{PluginName: Name}}
}

func (p *Plugin) BuildChatModel(ctx context.Context, instance *entity.ModelInstance, provider *entity.ModelProvider, params *entity.LLMParams) (model.BaseChatModel, error) {
	conn, err := helper.Conn(instance, provider)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, clientConfig(conn, instance.Connection.Gemini))
	if err != nil {
		return nil, fmt.Errorf("create genai client for %s/%s: %w", provider.ID, instance.ModelID, err)
	}

	maxTokens := helper.MaxTokens(instance, params)
	cfg := &einoGemini.Config{
		Client:    client,
		Model:     conn.Model,
		MaxTokens: &maxTokens,
	}
	if params != nil {
		cfg.Temperature = params.Temperature
		cfg.TopP = params.TopP
		cfg.TopK = params.TopK
	}
	if think := params.ThinkingFor(conn.ThinkingType); think != nil {
		cfg.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: *think}
	}
	return einoGemini.NewChatModel(ctx, cfg)
}

// clientConfig targets the Gemini API unless the model carries Vertex AI
// settings. An empty BaseURL lets genai pick the endpoint of the backend.
func clientConfig(conn *entity.BaseConnectionInfo, vertex *entity.GeminiConnInfo) *genai.ClientConfig {
	cc := &genai.ClientConfig{
		APIKey:      conn.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: conn.BaseURL},
	}
	if vertex != nil {
		if vertex.Backend != 0 {
			cc.Backend = genai.Backend(vertex.Backend)
		}
		cc.Project = vertex.Project
		cc.Location = vertex.Location
	}
	return cc
}

func (p *Plugin) DefaultConfig() *options.ProviderConfig {
	return &options.ProviderConfig{
		APIKey: "${GOOGLE_API_KEY}",
		API:    "google-generative-ai",
		Models: []options.ModelDefinition{
			{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Reasoning: true, Input: []string{"text", "image"}, ContextWindow: 1048576, MaxTokens: 65536, Cost: options.ModelCost{Input: 0.3, Output: 2.5, CacheRead: 0.075}},
			{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Input: []string{"text", "image"}, ContextWindow: 1048576, MaxTokens: 8192, Cost: options.ModelCost{Input: 0.1, Output: 0.4, CacheRead: 0.025}},
		},
	}
}
