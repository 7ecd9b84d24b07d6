package provider

import (
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/anthropic"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/deepseek"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/gemini"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/ollama"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/openai"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/qwen"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/spi"
)

var inTree = map[string]func() spi.ProviderPlugin{
	anthropic.Name: anthropic.New,
	deepseek.Name:  deepseek.New,
	gemini.Name:    gemini.New,
	ollama.Name:    ollama.New,
	openai.Name:    openai.New,
	qwen.Name:      qwen.New,
}

// NewInTreeRegistry returns a Registry of the built-in providers.
func NewInTreeRegistry() *Registry {
	r := NewRegistry()
	for name, newPlugin := range inTree {
		r.MustRegister(name, spi.PluginFactory(newPlugin))
	}
	return r
}
