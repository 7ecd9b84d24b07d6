package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg"
	"github.com/kiosk404/echoloop/pkg/logger"
	"github.com/kiosk404/echoloop/pkg/utils/json"
)

// LLMOracle asks an Eino chat model for the next decision.
type LLMOracle struct {
	model     einoModel.BaseChatModel
	toolInfos []*schema.ToolInfo
}

// LLMOption configures an LLMOracle.
type LLMOption func(*LLMOracle)

// WithToolInfos binds tools natively when the model supports tool calling.
// Native tool calls returned by the model are merged into the decision.
func WithToolInfos(infos []*schema.ToolInfo) LLMOption {
	return func(o *LLMOracle) {
		o.toolInfos = infos
	}
}

// NewLLMOracle creates an oracle backed by m.
func NewLLMOracle(m einoModel.BaseChatModel, opts ...LLMOption) *LLMOracle {
	o := &LLMOracle{model: m}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Decide sends one decision prompt. Transport errors are returned, while an
// unparseable reply becomes a continuing decision carrying the parse error.
func (o *LLMOracle) Decide(ctx context.Context, req *Request) (*Decision, error) {
	if o.model == nil {
		return nil, errors.New("chat model is not configured")
	}
	chatModel, err := o.bindTools()
	if err != nil {
		return nil, err
	}

	resp, err := chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(BuildPrompt(req)),
	})
	if err != nil {
		return nil, fmt.Errorf("chat model generate failed: %w", err)
	}
	if resp == nil {
		return nil, errors.New("chat model returned no message")
	}

	var d *Decision
	if _, hasJSON := extractJSONObject(resp.Content); !hasJSON && len(resp.ToolCalls) > 0 {
		d = &Decision{
			OverallReasoning: orDefault(resp.Content, "Model requested native tool calls"),
			ParallelSafe:     true,
			ShouldContinue:   true,
		}
	} else {
		d = ParseDecision(resp.Content)
	}
	mergeNativeToolCalls(d, resp.ToolCalls)
	logger.DebugX(pkg.ModuleName, "[LLMOracle] iteration %d: use_tools=%v calls=%d continue=%v",
		req.IterationCount, d.ShouldUseTools, len(d.ToolCalls), d.ShouldContinue)
	return d, nil
}

func (o *LLMOracle) bindTools() (einoModel.BaseChatModel, error) {
	if len(o.toolInfos) == 0 {
		return o.model, nil
	}
	tcm, ok := o.model.(einoModel.ToolCallingChatModel)
	if !ok {
		return o.model, nil
	}
	bound, err := tcm.WithTools(o.toolInfos)
	if err != nil {
		return nil, fmt.Errorf("bind tools to chat model failed: %w", err)
	}
	return bound, nil
}

type wireToolCall struct {
	ToolName   string                 `json:"tool_name"`
	Name       string                 `json:"name"`
	Arguments  map[string]interface{} `json:"arguments"`
	Parameters map[string]interface{} `json:"parameters"`
}

type wireDecision struct {
	OverallReasoning      string         `json:"overall_reasoning"`
	Confidence            float64        `json:"confidence"`
	ShouldUseTools        bool           `json:"should_use_tools"`
	ToolCalls             []wireToolCall `json:"tool_calls"`
	ParallelSafe          *bool          `json:"parallel_safe"`
	ShouldContinue        bool           `json:"should_continue"`
	ContinuationReasoning string         `json:"continuation_reasoning"`
	FinalResponse         string         `json:"final_response"`
	SuggestedNextAction   string         `json:"suggested_next_action"`
}

// ParseDecision extracts a Decision from model output. It accepts a bare
// object, a fenced code block or the first {...} span in surrounding prose.
// Output that still cannot be decoded yields a decision that continues.
func ParseDecision(content string) *Decision {
	payload, ok := extractJSONObject(content)
	if !ok {
		return unparsedDecision(errors.New("no JSON object found in model output"))
	}

	var w wireDecision
	if err := json.UnmarshalFromString(payload, &w); err != nil {
		return unparsedDecision(err)
	}

	d := &Decision{
		OverallReasoning:      w.OverallReasoning,
		Confidence:            w.Confidence,
		ShouldUseTools:        w.ShouldUseTools,
		ParallelSafe:          true,
		ShouldContinue:        w.ShouldContinue,
		ContinuationReasoning: w.ContinuationReasoning,
		FinalResponse:         w.FinalResponse,
		SuggestedNextAction:   w.SuggestedNextAction,
	}
	if w.ParallelSafe != nil {
		d.ParallelSafe = *w.ParallelSafe
	}
	for _, c := range w.ToolCalls {
		name := c.ToolName
		if name == "" {
			name = c.Name
		}
		args := c.Arguments
		if args == nil {
			args = c.Parameters
		}
		d.ToolCalls = append(d.ToolCalls, entity.NewToolCall(name, args))
	}
	return d
}

func unparsedDecision(err error) *Decision {
	logger.WarnX(pkg.ModuleName, "[LLMOracle] unparseable model output: %v", err)
	return &Decision{
		OverallReasoning:      fmt.Sprintf("Could not parse reasoning output: %v", err),
		ShouldContinue:        true,
		ContinuationReasoning: "Retrying after an unparseable response",
	}
}

func extractJSONObject(content string) (string, bool) {
	s := strings.TrimSpace(content)
	if fence := strings.Index(s, "```"); fence >= 0 {
		rest := s[fence+3:]
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// mergeNativeToolCalls appends calls to d. The continuation flag stays as
// the JSON decision set it.
func mergeNativeToolCalls(d *Decision, calls []schema.ToolCall) {
	for _, tc := range calls {
		args := map[string]interface{}{}
		if strings.TrimSpace(tc.Function.Arguments) != "" {
			if err := json.UnmarshalFromString(tc.Function.Arguments, &args); err != nil {
				logger.WarnX(pkg.ModuleName, "[LLMOracle] native tool call %q has invalid arguments: %v", tc.Function.Name, err)
				continue
			}
		}
		d.ToolCalls = append(d.ToolCalls, entity.NewToolCall(tc.Function.Name, args))
		d.ShouldUseTools = true
	}
}
