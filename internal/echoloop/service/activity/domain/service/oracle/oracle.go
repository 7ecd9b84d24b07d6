// Package oracle wraps the external reasoning step that proposes the next
// action of an activity.
package oracle

import (
	"context"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
)

// Request is everything an oracle sees for one iteration.
type Request struct {
	UserQuery           string `json:"user_query"`
	Goal                string `json:"goal,omitempty"`
	ConversationHistory string `json:"conversation_history"`
	LastToolResults     string `json:"last_tool_results,omitempty"`
	// AvailableTools is a JSON array of {name, description}.
	AvailableTools string `json:"available_tools"`
	IterationCount int    `json:"iteration_count"`
	MaxIterations  int    `json:"max_iterations"`
}

// Decision is the oracle's proposal for the current iteration.
type Decision struct {
	OverallReasoning      string            `json:"overall_reasoning"`
	Confidence            float64           `json:"confidence"`
	ShouldUseTools        bool              `json:"should_use_tools"`
	ToolCalls             []entity.ToolCall `json:"tool_calls,omitempty"`
	ParallelSafe          bool              `json:"parallel_safe"`
	ShouldContinue        bool              `json:"should_continue"`
	ContinuationReasoning string            `json:"continuation_reasoning"`
	FinalResponse         string            `json:"final_response,omitempty"`
	SuggestedNextAction   string            `json:"suggested_next_action,omitempty"`
}

// Oracle decides what an activity does next. Implementations may be
// non-deterministic. A returned error means the call itself failed.
type Oracle interface {
	Decide(ctx context.Context, req *Request) (*Decision, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, req *Request) (*Decision, error)

func (f Func) Decide(ctx context.Context, req *Request) (*Decision, error) {
	return f(ctx, req)
}

func (d *Decision) clone() *Decision {
	cp := *d
	if d.ToolCalls != nil {
		cp.ToolCalls = make([]entity.ToolCall, 0, len(d.ToolCalls))
		for _, c := range d.ToolCalls {
			cp.ToolCalls = append(cp.ToolCalls, entity.NewToolCall(c.ToolName, c.Arguments))
		}
	}
	return &cp
}
