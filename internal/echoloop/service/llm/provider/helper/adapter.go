package helper

import (
	"context"
	"fmt"

	"github.com/bytedance/gg/gptr"
	einoOpenAI "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
)

// DefaultMaxTokens caps a reply when neither the params nor the model
// definition set a limit.
const DefaultMaxTokens = 4096

// Conn returns the resolved connection of instance, or an error naming the
// model when the registry never filled one in.
func Conn(instance *entity.ModelInstance, provider *entity.ModelProvider) (*entity.BaseConnectionInfo, error) {
	if instance == nil || instance.Connection.BaseConnInfo == nil {
		var ref string
		if instance != nil {
			ref = instance.ModelID
		}
		return nil, fmt.Errorf("model %s/%s has no connection info", provider.ID, ref)
	}
	return instance.Connection.BaseConnInfo, nil
}

// MaxTokens picks the reply limit: params first, then the model definition.
func MaxTokens(instance *entity.ModelInstance, params *entity.LLMParams) int {
	limit := instance.MaxTokens
	if limit <= 0 {
		limit = DefaultMaxTokens
	}
	return params.MaxTokensOr(limit)
}

// NewOpenAICompatibleChatModel serves OpenAI and every endpoint that speaks
// its chat completions API.
func NewOpenAICompatibleChatModel(ctx context.Context, instance *entity.ModelInstance, provider *entity.ModelProvider, params *entity.LLMParams) (model.BaseChatModel, error) {
	conn, err := Conn(instance, provider)
	if err != nil {
		return nil, err
	}

	cfg := &einoOpenAI.ChatModelConfig{
		BaseURL:   conn.BaseURL,
		APIKey:    conn.APIKey,
		Model:     conn.Model,
		MaxTokens: gptr.Of(MaxTokens(instance, params)),
	}
	if az := instance.Connection.Openai; az != nil {
		cfg.ByAzure = az.ByAzure
		cfg.APIVersion = az.APIVersion
	}
	cfg.ResponseFormat = OpenAIResponseFormat(params)
	if params != nil {
		cfg.Temperature = params.Temperature
		cfg.TopP = params.TopP
		cfg.FrequencyPenalty = params.FrequencyPenalty
		cfg.PresencePenalty = params.PresencePenalty
	}
	return einoOpenAI.NewChatModel(ctx, cfg)
}

// OpenAIResponseFormat maps the JSON switch to the chat completions format.
func OpenAIResponseFormat(params *entity.LLMParams) *einoOpenAI.ChatCompletionResponseFormat {
	t := einoOpenAI.ChatCompletionResponseFormatTypeText
	if params.WantsJSON() {
		t = einoOpenAI.ChatCompletionResponseFormatTypeJSONObject
	}
	return &einoOpenAI.ChatCompletionResponseFormat{Type: t}
}
