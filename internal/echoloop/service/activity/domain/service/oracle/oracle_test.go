package oracle

import (
	"context"
	"errors"
	"math"
	"testing"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	reply    *schema.Message
	err      error
	got      []*schema.Message
	boundTo  []*schema.ToolInfo
	withTool bool
}

func (f *fakeChatModel) Generate(_ context.Context, in []*schema.Message, _ ...einoModel.Option) (*schema.Message, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) WithTools(tools []*schema.ToolInfo) (einoModel.ToolCallingChatModel, error) {
	cp := *f
	cp.boundTo = tools
	cp.withTool = true
	return &cp, nil
}

func request(iter, max int) *Request {
	return &Request{UserQuery: "q", IterationCount: iter, MaxIterations: max, AvailableTools: "[]"}
}

func TestNormalize_MaxIterations(t *testing.T) {
	d := Normalize(&Decision{ShouldContinue: true}, 5, 5, nil)
	assert.False(t, d.ShouldContinue)
	assert.Equal(t, MaxIterationsResponse, d.FinalResponse)
	assert.Equal(t, "Maximum iterations (5) reached", d.ContinuationReasoning)

	d = Normalize(&Decision{ShouldContinue: true, FinalResponse: "kept"}, 6, 5, nil)
	assert.Equal(t, "kept", d.FinalResponse)
}

func TestNormalize_DropsUnknownTools(t *testing.T) {
	in := &Decision{
		ShouldUseTools: true,
		ShouldContinue: true,
		ToolCalls: []entity.ToolCall{
			{ToolName: "known"},
			{ToolName: "ghost"},
		},
	}
	d := Normalize(in, 1, 5, NewNameSet("known"))
	require.Len(t, d.ToolCalls, 1)
	assert.Equal(t, "known", d.ToolCalls[0].ToolName)
	assert.True(t, d.ShouldUseTools)
	assert.Len(t, in.ToolCalls, 2, "input must not be mutated")
}

func TestNormalize_NoValidTools(t *testing.T) {
	d := Normalize(&Decision{
		ShouldUseTools: true,
		ShouldContinue: true,
		ToolCalls:      []entity.ToolCall{{ToolName: "ghost"}},
	}, 1, 5, NewNameSet("known"))
	assert.False(t, d.ShouldUseTools)
	assert.Empty(t, d.ToolCalls)
	assert.Equal(t, "No valid tools available for selected actions", d.ContinuationReasoning)
	assert.True(t, d.ShouldContinue)
}

func TestNormalize_UseToolsWithoutCalls(t *testing.T) {
	d := Normalize(&Decision{ShouldUseTools: true, ShouldContinue: true}, 1, 5, nil)
	assert.False(t, d.ShouldUseTools)
	assert.Equal(t, "No specific tools identified for execution", d.ContinuationReasoning)
}

func TestNormalize_FallbackFinalResponse(t *testing.T) {
	d := Normalize(&Decision{ShouldContinue: false}, 1, 5, nil)
	assert.Equal(t, CompletedResponse, d.FinalResponse)
}

func TestNormalize_ClampsConfidence(t *testing.T) {
	assert.Equal(t, 1.0, Normalize(&Decision{Confidence: 3}, 1, 5, nil).Confidence)
	assert.Equal(t, 0.0, Normalize(&Decision{Confidence: -1}, 1, 5, nil).Confidence)
	assert.Equal(t, 0.0, Normalize(&Decision{Confidence: math.NaN()}, 1, 5, nil).Confidence)
	assert.Equal(t, 0.4, Normalize(&Decision{Confidence: 0.4}, 1, 5, nil).Confidence)
}

func TestAdapter_PropagatesOracleFailure(t *testing.T) {
	boom := errors.New("network down")
	a := NewAdapter(Func(func(context.Context, *Request) (*Decision, error) { return nil, boom }), nil)

	_, err := a.Decide(context.Background(), request(1, 5))
	require.Error(t, err)
	assert.ErrorIs(t, err, errno.ErrOracleFailed)
	assert.ErrorIs(t, err, boom)
}

func TestAdapter_NilOracleAndNilDecision(t *testing.T) {
	_, err := NewAdapter(nil, nil).Decide(context.Background(), request(1, 5))
	assert.ErrorIs(t, err, errno.ErrOracleRequired)

	a := NewAdapter(Func(func(context.Context, *Request) (*Decision, error) { return nil, nil }), nil)
	d, err := a.Decide(context.Background(), request(1, 5))
	require.NoError(t, err)
	assert.False(t, d.ShouldContinue)
	assert.Equal(t, CompletedResponse, d.FinalResponse)
}

func TestParseDecision(t *testing.T) {
	cases := map[string]string{
		"bare":   `{"overall_reasoning":"r","confidence":0.7,"should_use_tools":true,"tool_calls":[{"tool_name":"give_hint","arguments":{"hint_total":1}}],"should_continue":true,"continuation_reasoning":"more"}`,
		"fenced": "Here you go:\n```json\n{\"overall_reasoning\":\"r\",\"confidence\":0.7,\"should_use_tools\":true,\"tool_calls\":[{\"name\":\"give_hint\",\"parameters\":{\"hint_total\":1}}],\"should_continue\":true}\n```\nThanks",
		"prose":  `Sure. {"overall_reasoning":"r","confidence":0.7,"should_use_tools":true,"tool_calls":[{"tool_name":"give_hint","arguments":{"hint_total":1}}],"should_continue":true} Hope that helps.`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			d := ParseDecision(content)
			assert.Equal(t, "r", d.OverallReasoning)
			assert.Equal(t, 0.7, d.Confidence)
			assert.True(t, d.ShouldUseTools)
			assert.True(t, d.ShouldContinue)
			assert.True(t, d.ParallelSafe)
			require.Len(t, d.ToolCalls, 1)
			assert.Equal(t, "give_hint", d.ToolCalls[0].ToolName)
			assert.Equal(t, float64(1), d.ToolCalls[0].Arguments["hint_total"])
		})
	}
}

func TestParseDecision_Malformed(t *testing.T) {
	for _, content := range []string{"", "no json here", `{"confidence": "high"`, `{"confidence": "high"}`} {
		d := ParseDecision(content)
		assert.True(t, d.ShouldContinue, content)
		assert.Contains(t, d.OverallReasoning, "Could not parse reasoning output")
	}
}

func TestBuildPrompt_Defaults(t *testing.T) {
	p := BuildPrompt(&Request{UserQuery: "find it", ConversationHistory: "No conversation history available", AvailableTools: "[]", IterationCount: 2, MaxIterations: 5})
	assert.Contains(t, p, "find it")
	assert.Contains(t, p, "No explicit goal provided")
	assert.Contains(t, p, "No previous tool results")
	assert.Contains(t, p, "2 of 5")
}

func TestLLMOracle_Decide(t *testing.T) {
	m := &fakeChatModel{reply: schema.AssistantMessage(`{"overall_reasoning":"done","confidence":1,"should_use_tools":false,"should_continue":false,"final_response":"42"}`, nil)}
	d, err := NewLLMOracle(m).Decide(context.Background(), request(1, 5))
	require.NoError(t, err)
	assert.Equal(t, "42", d.FinalResponse)
	require.Len(t, m.got, 2)
	assert.Equal(t, schema.System, m.got[0].Role)
	assert.Contains(t, m.got[1].Content, "## User query")
}

func TestLLMOracle_TransportError(t *testing.T) {
	m := &fakeChatModel{err: errors.New("timeout")}
	_, err := NewLLMOracle(m).Decide(context.Background(), request(1, 5))
	assert.Error(t, err)
}

func TestLLMOracle_NativeToolCalls(t *testing.T) {
	reply := schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "call_1",
		Function: schema.FunctionCall{Name: "give_hint", Arguments: `{"hint_total":0}`},
	}})
	m := &fakeChatModel{reply: reply}
	infos := []*schema.ToolInfo{{Name: "give_hint", Desc: "hint"}}

	d, err := NewLLMOracle(m, WithToolInfos(infos)).Decide(context.Background(), request(1, 5))
	require.NoError(t, err)
	assert.True(t, d.ShouldUseTools)
	assert.True(t, d.ShouldContinue)
	require.Len(t, d.ToolCalls, 1)
	assert.Equal(t, "give_hint", d.ToolCalls[0].ToolName)
}

func TestLLMOracle_NativeToolCallsKeepJSONStop(t *testing.T) {
	reply := schema.AssistantMessage(`{"overall_reasoning":"last guess","should_use_tools":true,"should_continue":false,"final_response":"Guessed Lenora Street."}`,
		[]schema.ToolCall{{
			ID:       "call_1",
			Function: schema.FunctionCall{Name: "guess_location", Arguments: `{"address":"Lenora St","city":"Seattle","state":"WA"}`},
		}})
	m := &fakeChatModel{reply: reply}

	d, err := NewLLMOracle(m).Decide(context.Background(), request(2, 5))
	require.NoError(t, err)
	assert.True(t, d.ShouldUseTools)
	assert.False(t, d.ShouldContinue)
	assert.Equal(t, "Guessed Lenora Street.", d.FinalResponse)
	require.Len(t, d.ToolCalls, 1)
	assert.Equal(t, "guess_location", d.ToolCalls[0].ToolName)
}

func TestScripted(t *testing.T) {
	s := NewScripted(
		&Decision{OverallReasoning: "one", ShouldContinue: true},
		&Decision{OverallReasoning: "two", ShouldContinue: true},
	)
	for _, want := range []string{"one", "two", "two"} {
		d, err := s.Decide(context.Background(), request(1, 5))
		require.NoError(t, err)
		assert.Equal(t, want, d.OverallReasoning)
	}
	assert.Len(t, s.Requests(), 3)

	d, err := NewScripted().Decide(context.Background(), request(1, 5))
	require.NoError(t, err)
	assert.False(t, d.ShouldContinue)
}
