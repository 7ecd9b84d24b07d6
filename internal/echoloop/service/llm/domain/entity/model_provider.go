package entity

import (
	"fmt"
)

// ModelProvider is a configured endpoint that hosts one or more models.
type ModelProvider struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	BaseURL    string            `json:"base_url"`
	ModelClass ModelClass        `json:"model_class"`
	APIKey     string            `json:"-"`
	API        ModelAPI          `json:"api"`
	AuthHeader bool              `json:"auth_header"`
	Headers    map[string]string `json:"headers,omitempty"`
	Enabled    bool              `json:"enabled"`
}

type ModelAPI string

const (
	ModelAPI_OpenAICompletions  ModelAPI = "openai-completions"
	ModelAPI_AnthropicMessages  ModelAPI = "anthropic-messages"
	ModelAPI_GoogleGenerativeAI ModelAPI = "google-generative-ai"
	ModelAPI_OllamaGenerative   ModelAPI = "ollama-generate"
)

func (a ModelAPI) String() string {
	return string(a)
}

// ModelAPIFromString parses s, defaulting to the OpenAI completions API.
func ModelAPIFromString(s string) (ModelAPI, error) {
	switch ModelAPI(s) {
	case ModelAPI_AnthropicMessages, ModelAPI_OpenAICompletions,
		ModelAPI_OllamaGenerative, ModelAPI_GoogleGenerativeAI:
		return ModelAPI(s), nil
	}
	if s == "" {
		return ModelAPI_OpenAICompletions, nil
	}
	return "", fmt.Errorf("unknown model API: %q", s)
}
