package entity

import (
	"time"
)

// CompressedHistoryInput marks the synthetic entry produced by history compression.
const CompressedHistoryInput = "[COMPRESSED HISTORY]"

// ConversationEntry records a single iteration of an activity.
// Iteration 0 is reserved for the compression summary.
type ConversationEntry struct {
	Iteration     int                   `json:"iteration"`
	UserInput     string                `json:"user_input"`
	Response      string                `json:"response"`
	ToolCallsMade []ToolCall            `json:"tool_calls_made"`
	ToolResults   []ToolExecutionResult `json:"tool_results"`
	Timestamp     time.Time             `json:"timestamp"`
}

// IsSummary reports whether the entry was synthesized by compression.
func (e ConversationEntry) IsSummary() bool {
	return e.Iteration == 0 && e.UserInput == CompressedHistoryInput
}

// ConversationState is threaded through every iteration of one activity.
// It is owned by a single controller run and never shared.
type ConversationState struct {
	UserQuery           string                `json:"user_query"`
	Goal                string                `json:"goal,omitempty"`
	IterationCount      int                   `json:"iteration_count"`
	ConversationHistory []ConversationEntry   `json:"conversation_history"`
	LastToolResults     []ToolExecutionResult `json:"last_tool_results,omitempty"`
	ActivityID          string                `json:"activity_id"`
	MaxIterations       int                   `json:"max_iterations"`
	StartTime           time.Time             `json:"start_time"`
	ToolSetName         string                `json:"tool_set_name,omitempty"`
}

// NewConversationState creates the state at activity start with a zero iteration count.
func NewConversationState(activityID, userQuery, goal string, maxIterations int, toolSet string) *ConversationState {
	return &ConversationState{
		UserQuery:           userQuery,
		Goal:                goal,
		ActivityID:          activityID,
		MaxIterations:       maxIterations,
		StartTime:           time.Now(),
		ToolSetName:         toolSet,
		ConversationHistory: make([]ConversationEntry, 0),
	}
}

// Elapsed is the wall-clock time since the activity started.
func (s *ConversationState) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}
