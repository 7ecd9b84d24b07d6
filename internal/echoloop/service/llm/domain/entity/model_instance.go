package entity

import (
	"fmt"
	"strings"

	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/pkg/errno"
)

// ModelInstance is a concrete, usable model registered with the manager.
type ModelInstance struct {
	ID int64 `json:"id"`
	// ModelID is the model identifier at the provider (e.g. "gpt-4o").
	ModelID    string `json:"model_id"`
	ProviderID string `json:"provider_id"`
	Name       string `json:"name"`
	IsDefault  bool   `json:"is_default"`
	// Connection holds the resolved connection parameters.
	Connection    Connection    `json:"-"`
	Cost          ModelCostInfo `json:"cost"`
	ContextWindow int           `json:"context_window"`
	MaxTokens     int           `json:"max_tokens"`
	Reasoning     bool          `json:"reasoning"`
	InputTypes    []string      `json:"input_types"`
	Status        ModelStatus   `json:"status"`
}

// Ref returns the provider/model reference of the instance.
func (m *ModelInstance) Ref() ModelRef {
	return ModelRef{ProviderID: m.ProviderID, ModelID: m.ModelID}
}

// Connection holds what a provider plugin needs to reach a model.
type Connection struct {
	BaseConnInfo *BaseConnectionInfo
	Openai       *OpenAIConnInfo
	Gemini       *GeminiConnInfo
}

type BaseConnectionInfo struct {
	BaseURL      string
	APIKey       string
	Model        string
	ThinkingType ThinkingType
}

type OpenAIConnInfo struct {
	ByAzure    bool
	APIVersion string
}

// GeminiConnInfo carries the Vertex AI settings. A zero Backend means the Gemini API.
type GeminiConnInfo struct {
	Backend  int
	Project  string
	Location string
}

type ThinkingType int

const (
	ThinkingType_Default ThinkingType = iota
	ThinkingType_Enable
	ThinkingType_Disable
)

type ModelClass int64

const (
	ModelClass_GPT      ModelClass = 1
	ModelClass_QWen     ModelClass = 2
	ModelClass_Gemini   ModelClass = 3
	ModelClass_DeepSeek ModelClass = 4
	ModelClass_Ollama   ModelClass = 5
	ModelClass_Claude   ModelClass = 6
	ModelClass_Other    ModelClass = 999
)

func (p ModelClass) String() string {
	switch p {
	case ModelClass_GPT:
		return "gpt"
	case ModelClass_QWen:
		return "qwen"
	case ModelClass_Gemini:
		return "gemini"
	case ModelClass_DeepSeek:
		return "deepseek"
	case ModelClass_Ollama:
		return "ollama"
	case ModelClass_Claude:
		return "claude"
	case ModelClass_Other:
		return "other"
	}
	return "<UNSET>"
}

func ModelClassFromString(s string) ModelClass {
	switch s {
	case "gpt", "openai":
		return ModelClass_GPT
	case "qwen":
		return ModelClass_QWen
	case "gemini", "google":
		return ModelClass_Gemini
	case "deepseek":
		return ModelClass_DeepSeek
	case "ollama":
		return ModelClass_Ollama
	case "claude", "anthropic":
		return ModelClass_Claude
	}
	return ModelClass_Other
}

// ModelCostInfo is the price per million tokens.
type ModelCostInfo struct {
	Input      float64 `json:"input"`
	Output     float64 `json:"output"`
	CacheRead  float64 `json:"cache_read"`
	CacheWrite float64 `json:"cache_write"`
}

type ModelStatus int32

const (
	ModelStatus_Ready    ModelStatus = 0
	ModelStatus_Disabled ModelStatus = 1
)

func (s ModelStatus) String() string {
	switch s {
	case ModelStatus_Ready:
		return "Ready"
	case ModelStatus_Disabled:
		return "Disabled"
	default:
		return "Unknown"
	}
}

// ModelRef is a reference to a model instance.
type ModelRef struct {
	ProviderID string `json:"provider_id"`
	ModelID    string `json:"model_id"`
}

func (r ModelRef) String() string {
	return fmt.Sprintf("%s/%s", r.ProviderID, r.ModelID)
}

// ParseModelRef parses "provider/model". The model part may itself contain slashes.
func ParseModelRef(s string) (ModelRef, error) {
	provider, model, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || provider == "" || model == "" {
		return ModelRef{}, fmt.Errorf("%w: %q, want provider/model", errno.ErrInvalidModelRef, s)
	}
	return ModelRef{ProviderID: provider, ModelID: model}, nil
}
