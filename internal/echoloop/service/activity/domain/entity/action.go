package entity

// ActionType is the kind of step the agent loop proposes.
type ActionType string

const (
	ActionToolExecution ActionType = "tool_execution"
	ActionFinalResponse ActionType = "final_response"
	ActionErrorRecovery ActionType = "error_recovery"
	ActionGoalCheck     ActionType = "goal_check"
	ActionContinue      ActionType = "continue"
)

// ActionDecision is the agent loop's typed output for one iteration.
//
// When ActionType is ActionToolExecution, ToolCalls is non-empty and every
// tool name is registered.
type ActionDecision struct {
	ActionType            ActionType `json:"action_type"`
	ToolCalls             []ToolCall `json:"tool_calls"`
	Reasoning             string     `json:"reasoning"`
	ShouldContinue        bool       `json:"should_continue"`
	ContinuationReasoning string     `json:"continuation_reasoning,omitempty"`
	FinalResponse         string     `json:"final_response,omitempty"`
	ConfidenceScore       float64    `json:"confidence_score"`
	IterationCount        int        `json:"iteration_count"`
	MaxIterations         int        `json:"max_iterations"`
	// ParallelSafe is advisory. Tool calls always run sequentially.
	ParallelSafe bool `json:"parallel_safe"`
}
