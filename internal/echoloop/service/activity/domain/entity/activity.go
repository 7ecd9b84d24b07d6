package entity

import (
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
)

// ActivityStatus is the terminal status of an activity.
type ActivityStatus string

const (
	ActivityStatusCompleted     ActivityStatus = "completed"
	ActivityStatusErrorRecovery ActivityStatus = "error_recovery"
	ActivityStatusTerminated    ActivityStatus = "terminated"
	ActivityStatusMaxIterations ActivityStatus = "max_iterations"
)

// UnknownToolSet is reported when an activity ran without a named tool set.
const UnknownToolSet = "unknown"

// ActivityResult is the terminal record of an activity. It is created once
// when a terminal condition is reached and not mutated afterwards.
type ActivityResult struct {
	ActivityID        string                 `json:"activity_id"`
	Status            ActivityStatus         `json:"status"`
	FinalResponse     string                 `json:"final_response"`
	TotalIterations   int                    `json:"total_iterations"`
	TotalToolCalls    int                    `json:"total_tool_calls"`
	ExecutionTime     float64                `json:"execution_time"`
	ToolsUsed         []string               `json:"tools_used"`
	ErrorsEncountered []string               `json:"errors_encountered"`
	ConversationState *ConversationState     `json:"conversation_state"`
	ToolSetName       string                 `json:"tool_set_name"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// FreezeState returns a deep copy of state for embedding into a result.
func FreezeState(state *ConversationState) (*ConversationState, error) {
	if state == nil {
		return nil, nil
	}
	frozen := &ConversationState{}
	if err := copier.CopyWithOption(frozen, state, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("failed to freeze conversation state: %w", err)
	}
	return frozen, nil
}

// Summary renders a short human-readable report of the result.
func (r *ActivityResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Activity %s finished with status %s\n", r.ActivityID, r.Status)
	fmt.Fprintf(&b, "  Iterations: %d\n", r.TotalIterations)
	fmt.Fprintf(&b, "  Tool calls: %d\n", r.TotalToolCalls)
	fmt.Fprintf(&b, "  Execution time: %.2fs\n", r.ExecutionTime)
	if len(r.ToolsUsed) > 0 {
		fmt.Fprintf(&b, "  Tools used: %s\n", strings.Join(r.ToolsUsed, ", "))
	}
	if len(r.ErrorsEncountered) > 0 {
		fmt.Fprintf(&b, "  Errors: %d\n", len(r.ErrorsEncountered))
		for _, e := range r.ErrorsEncountered {
			fmt.Fprintf(&b, "    - %s\n", e)
		}
	}
	fmt.Fprintf(&b, "  Final response: %s", r.FinalResponse)
	return b.String()
}
