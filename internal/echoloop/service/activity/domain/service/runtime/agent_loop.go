package runtime

import (
	"context"
	"sync"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service/oracle"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg"
	"github.com/kiosk404/echoloop/pkg/logger"
)

// ToolCatalog is what the agent loop needs to describe tools to the oracle.
type ToolCatalog interface {
	Names() []string
	Descriptions() string
}

// ActionSource produces the next action of an activity.
type ActionSource interface {
	GetNextAction(ctx context.Context, state *entity.ConversationState) *entity.ActionDecision
}

// AgentLoop turns oracle decisions into typed actions.
//
// The tool names the oracle may propose are captured when the loop is built
// and refreshed only by UpdateToolNames.
type AgentLoop struct {
	oracle oracle.Oracle
	tools  ToolCatalog

	mu      sync.RWMutex
	adapter *oracle.Adapter
}

// NewAgentLoop binds o to the tools currently in catalog.
func NewAgentLoop(o oracle.Oracle, catalog ToolCatalog) *AgentLoop {
	l := &AgentLoop{oracle: o, tools: catalog}
	var names []string
	if catalog != nil {
		names = catalog.Names()
	}
	l.UpdateToolNames(names)
	return l
}

// UpdateToolNames replaces the set of tool names the oracle may propose.
func (l *AgentLoop) UpdateToolNames(names []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.adapter = oracle.NewAdapter(l.oracle, oracle.NewNameSet(names...))
}

// GetNextAction asks the oracle once and maps the normalized decision.
// It never returns nil: oracle failures become an error recovery action.
func (l *AgentLoop) GetNextAction(ctx context.Context, state *entity.ConversationState) *entity.ActionDecision {
	req := &oracle.Request{
		UserQuery:           state.UserQuery,
		Goal:                state.Goal,
		ConversationHistory: FormatForLLM(state.ConversationHistory),
		LastToolResults:     FormatToolResults(state.LastToolResults),
		AvailableTools:      "[]",
		IterationCount:      state.IterationCount,
		MaxIterations:       state.MaxIterations,
	}
	if l.tools != nil {
		req.AvailableTools = l.tools.Descriptions()
	}

	l.mu.RLock()
	adapter := l.adapter
	l.mu.RUnlock()

	d, err := adapter.Decide(ctx, req)
	if err != nil {
		logger.WarnX(pkg.ModuleName, "[AgentLoop] activity %s iteration %d: %v", state.ActivityID, state.IterationCount, err)
		return &entity.ActionDecision{
			ActionType:            entity.ActionErrorRecovery,
			ToolCalls:             []entity.ToolCall{},
			Reasoning:             "Error occurred during reasoning: " + err.Error(),
			ShouldContinue:        false,
			ContinuationReasoning: "Stopping due to error",
			FinalResponse:         "I encountered an error: " + err.Error(),
			ConfidenceScore:       0,
			IterationCount:        state.IterationCount,
			MaxIterations:         state.MaxIterations,
		}
	}

	action := entity.ActionContinue
	switch {
	case d.ShouldUseTools && len(d.ToolCalls) > 0:
		action = entity.ActionToolExecution
	case !d.ShouldContinue:
		action = entity.ActionFinalResponse
	}

	calls := d.ToolCalls
	if calls == nil {
		calls = []entity.ToolCall{}
	}
	return &entity.ActionDecision{
		ActionType:            action,
		ToolCalls:             calls,
		Reasoning:             d.OverallReasoning,
		ShouldContinue:        d.ShouldContinue,
		ContinuationReasoning: d.ContinuationReasoning,
		FinalResponse:         d.FinalResponse,
		ConfidenceScore:       d.Confidence,
		IterationCount:        state.IterationCount,
		MaxIterations:         state.MaxIterations,
		ParallelSafe:          d.ParallelSafe,
	}
}
