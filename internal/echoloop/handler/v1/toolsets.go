package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service"
	"github.com/kiosk404/echoloop/internal/pkg/core"
)

// ToolSetHandler lists the loadable tool sets.
type ToolSetHandler struct {
	svc service.ActivityService
}

func NewToolSetHandler(svc service.ActivityService) *ToolSetHandler {
	return &ToolSetHandler{svc: svc}
}

// List handles GET /v1/toolsets.
func (h *ToolSetHandler) List(c *gin.Context) {
	sets := h.svc.ToolSets()
	resp := make([]ToolSetResponse, 0, len(sets))
	for _, s := range sets {
		resp = append(resp, toToolSetResponse(s))
	}
	core.WriteResponse(c, nil, gin.H{"data": resp})
}

// Limits handles GET /v1/limits.
func (h *ToolSetHandler) Limits(c *gin.Context) {
	l := h.svc.Limits()
	core.WriteResponse(c, nil, gin.H{
		"max_iterations":           l.MaxIterations,
		"timeout_seconds":          l.Timeout.Seconds(),
		"max_history_length":       l.MaxHistoryLength,
		"auto_summarize_threshold": l.AutoSummarizeThreshold,
	})
}
