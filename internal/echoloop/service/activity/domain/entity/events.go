package entity

// EventType identifies the type of a streaming activity event.
type EventType string

const (
	// EventIteration is emitted once per iteration with the decided action.
	EventIteration EventType = "iteration"

	// EventToolResult is emitted after each tool call returns.
	EventToolResult EventType = "tool_result"

	// EventError carries a failure that kept the activity from starting.
	EventError EventType = "error"

	// EventDone carries the terminal result and ends the stream.
	EventDone EventType = "done"
)

// ActivityEvent is a streaming event emitted while an activity runs.
//
// It flows through schema.Pipe[*ActivityEvent] from the controller goroutine
// to the client-facing stream.
type ActivityEvent struct {
	Type       EventType `json:"type"`
	ActivityID string    `json:"activity_id"`
	Iteration  int       `json:"iteration,omitempty"`

	// Decision is set for EventIteration.
	Decision *ActionDecision `json:"decision,omitempty"`

	// ToolResult is set for EventToolResult.
	ToolResult *ToolExecutionResult `json:"tool_result,omitempty"`

	// Result is set for EventDone.
	Result *ActivityResult `json:"result,omitempty"`

	Error string `json:"error,omitempty"`
}
