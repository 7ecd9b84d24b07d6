package entity

// ToolCall is one requested invocation of a named tool.
type ToolCall struct {
	ToolName  string                 `json:"tool_name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// NewToolCall copies args so later mutation by the caller does not leak in.
func NewToolCall(name string, args map[string]interface{}) ToolCall {
	cp := make(map[string]interface{}, len(args))
	for k, v := range args {
		cp[k] = v
	}
	return ToolCall{ToolName: name, Arguments: cp}
}

// ToolExecutionResult kinds.
const (
	ErrorKindValidation  = "ValidationError"
	ErrorKindExecution   = "ExecutionError"
	ErrorKindUnknownTool = "UnknownTool"
)

// ToolExecutionResult is the uniform outcome of one tool call.
// Result is meaningful when Success is true, Error otherwise.
type ToolExecutionResult struct {
	ToolName      string                 `json:"tool_name"`
	Success       bool                   `json:"success"`
	Result        interface{}            `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	ErrorKind     string                 `json:"error_kind,omitempty"`
	ExecutionTime float64                `json:"execution_time"`
	Parameters    map[string]interface{} `json:"parameters"`
}
