package entity

import "github.com/bytedance/gg/gptr"

// LLMParams override the generation settings of one built chat model.
// A nil field, or a nil *LLMParams, keeps what the provider would do anyway.
type LLMParams struct {
	Temperature      *float32 `json:"temperature,omitempty"`
	TopP             *float32 `json:"top_p,omitempty"`
	TopK             *int32   `json:"top_k,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	FrequencyPenalty *float32 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float32 `json:"presence_penalty,omitempty"`

	// JSONOutput asks for a bare JSON object on providers that have such a mode.
	JSONOutput bool `json:"json_output,omitempty"`

	// Thinking overrides the reasoning toggle taken from the model definition.
	Thinking *bool `json:"thinking,omitempty"`
}

func (p *LLMParams) IsZero() bool {
	return p == nil || *p == LLMParams{}
}

func (p *LLMParams) WantsJSON() bool {
	return p != nil && p.JSONOutput
}

func (p *LLMParams) MaxTokensOr(fallback int) int {
	if p == nil {
		return fallback
	}
	return gptr.IndirectOr(p.MaxTokens, fallback)
}

func (p *LLMParams) TemperatureOr(fallback float32) float32 {
	if p == nil {
		return fallback
	}
	return gptr.IndirectOr(p.Temperature, fallback)
}

// ThinkingFor resolves the reasoning toggle against the connection default.
// nil means the provider decides.
func (p *LLMParams) ThinkingFor(t ThinkingType) *bool {
	if p != nil && p.Thinking != nil {
		return gptr.Of(*p.Thinking)
	}
	switch t {
	case ThinkingType_Enable:
		return gptr.Of(true)
	case ThinkingType_Disable:
		return gptr.Of(false)
	}
	return nil
}
