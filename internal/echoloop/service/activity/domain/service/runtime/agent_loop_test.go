package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateAt(iteration, maxIterations int) *entity.ConversationState {
	s := entity.NewConversationState("activity_test", "where is it?", "", maxIterations, "")
	s.IterationCount = iteration
	return s
}

func TestAgentLoop_Mapping(t *testing.T) {
	cases := []struct {
		name     string
		decision *oracle.Decision
		want     entity.ActionType
	}{
		{
			name: "tools",
			decision: &oracle.Decision{ShouldUseTools: true, ShouldContinue: true,
				ToolCalls: []entity.ToolCall{{ToolName: "give_hint"}}},
			want: entity.ActionToolExecution,
		},
		{
			name:     "final",
			decision: &oracle.Decision{ShouldContinue: false, FinalResponse: "done"},
			want:     entity.ActionFinalResponse,
		},
		{
			name:     "continue",
			decision: &oracle.Decision{ShouldContinue: true},
			want:     entity.ActionContinue,
		},
		{
			name: "unknown tools only",
			decision: &oracle.Decision{ShouldUseTools: true, ShouldContinue: true,
				ToolCalls: []entity.ToolCall{{ToolName: "ghost"}}},
			want: entity.ActionContinue,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := oracle.Func(func(context.Context, *oracle.Request) (*oracle.Decision, error) {
				return tc.decision, nil
			})
			loop := NewAgentLoop(o, staticCatalog{"give_hint"})
			got := loop.GetNextAction(context.Background(), stateAt(1, 5))
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.ActionType)
			assert.Equal(t, 1, got.IterationCount)
			assert.Equal(t, 5, got.MaxIterations)
			assert.NotNil(t, got.ToolCalls)
		})
	}
}

func TestAgentLoop_BuildsRequest(t *testing.T) {
	scripted := oracle.NewScripted(&oracle.Decision{ShouldContinue: true})
	loop := NewAgentLoop(scripted, staticCatalog{"search"})

	state := stateAt(2, 4)
	state.Goal = "find treasure"
	state.ConversationHistory = makeEntries(1)
	state.LastToolResults = []entity.ToolExecutionResult{{ToolName: "search", Error: "Unknown tool: search"}}
	loop.GetNextAction(context.Background(), state)

	reqs := scripted.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "where is it?", req.UserQuery)
	assert.Equal(t, "find treasure", req.Goal)
	assert.Equal(t, FormatForLLM(state.ConversationHistory), req.ConversationHistory)
	assert.Equal(t, "Tool 'search' failed: Unknown tool: search", req.LastToolResults)
	assert.Equal(t, staticCatalog{}.Descriptions(), req.AvailableTools)
	assert.Equal(t, 2, req.IterationCount)
	assert.Equal(t, 4, req.MaxIterations)
}

func TestAgentLoop_NilCatalog(t *testing.T) {
	scripted := oracle.NewScripted()
	loop := NewAgentLoop(scripted, nil)
	got := loop.GetNextAction(context.Background(), stateAt(1, 5))
	assert.Equal(t, entity.ActionFinalResponse, got.ActionType)
	assert.Equal(t, "[]", scripted.Requests()[0].AvailableTools)
}

func TestAgentLoop_OracleError(t *testing.T) {
	o := oracle.Func(func(context.Context, *oracle.Request) (*oracle.Decision, error) {
		return nil, errors.New("timeout talking to model")
	})
	got := NewAgentLoop(o, nil).GetNextAction(context.Background(), stateAt(1, 5))

	assert.Equal(t, entity.ActionErrorRecovery, got.ActionType)
	assert.False(t, got.ShouldContinue)
	assert.Zero(t, got.ConfidenceScore)
	assert.Contains(t, got.Reasoning, "Error occurred during reasoning: ")
	assert.Contains(t, got.Reasoning, "timeout talking to model")
	assert.Contains(t, got.FinalResponse, "I encountered an error: ")
	assert.Equal(t, "Stopping due to error", got.ContinuationReasoning)
}

func TestAgentLoop_LastIterationForcesFinal(t *testing.T) {
	o := oracle.Func(func(context.Context, *oracle.Request) (*oracle.Decision, error) {
		return &oracle.Decision{ShouldContinue: true}, nil
	})
	got := NewAgentLoop(o, nil).GetNextAction(context.Background(), stateAt(3, 3))
	assert.Equal(t, entity.ActionFinalResponse, got.ActionType)
	assert.Equal(t, oracle.MaxIterationsResponse, got.FinalResponse)
}

func TestAgentLoop_UpdateToolNames(t *testing.T) {
	o := oracle.Func(func(context.Context, *oracle.Request) (*oracle.Decision, error) {
		return &oracle.Decision{ShouldUseTools: true, ShouldContinue: true,
			ToolCalls: []entity.ToolCall{{ToolName: "late_tool"}}}, nil
	})
	loop := NewAgentLoop(o, staticCatalog{"give_hint"})
	assert.Equal(t, entity.ActionContinue, loop.GetNextAction(context.Background(), stateAt(1, 5)).ActionType)

	loop.UpdateToolNames([]string{"late_tool"})
	assert.Equal(t, entity.ActionToolExecution, loop.GetNextAction(context.Background(), stateAt(1, 5)).ActionType)
}
