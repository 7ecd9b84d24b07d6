package v1

import (
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
)

// RunActivityRequest is the body of POST /v1/activities and /v1/activities/stream.
type RunActivityRequest struct {
	UserQuery  string `json:"user_query" binding:"required"`
	Goal       string `json:"goal,omitempty"`
	ActivityID string `json:"activity_id,omitempty"`
	ToolSet    string `json:"tool_set,omitempty"`

	// MaxIterations and TimeoutSeconds override the server limits when positive.
	MaxIterations  int     `json:"max_iterations,omitempty" binding:"gte=0"`
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty" binding:"gte=0"`
}

// ActivityResponse is a stored activity result plus its rendered summary.
type ActivityResponse struct {
	*entity.ActivityResult
	Summary string `json:"summary"`
}

func toActivityResponse(r *entity.ActivityResult) ActivityResponse {
	return ActivityResponse{ActivityResult: r, Summary: r.Summary()}
}

// ToolSetResponse describes one loadable tool set.
type ToolSetResponse struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Tools       []tool.Definition `json:"tools"`
}

func toToolSetResponse(s tool.ToolSet) ToolSetResponse {
	var tools []*tool.Tool
	if s.Tools != nil {
		tools = s.Tools()
	}
	defs := make([]tool.Definition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, t.Definition)
	}
	return ToolSetResponse{Name: s.Name, Description: s.Description, Tools: defs}
}
