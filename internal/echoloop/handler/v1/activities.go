package v1

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/repo"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service"
	"github.com/kiosk404/echoloop/internal/pkg/core"
	"github.com/kiosk404/echoloop/pkg/errorx"
	"github.com/kiosk404/echoloop/pkg/logger"
	"github.com/kiosk404/echoloop/pkg/utils/json"
)

// ActivityHandler serves the activity endpoints.
type ActivityHandler struct {
	svc service.ActivityService
}

func NewActivityHandler(svc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

func (r *RunActivityRequest) toService() *service.RunActivityRequest {
	return &service.RunActivityRequest{
		UserQuery:      r.UserQuery,
		Goal:           r.Goal,
		ActivityID:     r.ActivityID,
		ToolSet:        r.ToolSet,
		MaxIterations:  r.MaxIterations,
		TimeoutSeconds: r.TimeoutSeconds,
	}
}

// Run handles POST /v1/activities. It blocks until the activity ends.
func (h *ActivityHandler) Run(c *gin.Context) {
	var req RunActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind activity request"), nil)
		return
	}

	result, err := h.svc.Run(c.Request.Context(), req.toService())
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, startCode(err, ErrActivityRun), "run activity"), nil)
		return
	}
	core.WriteResponse(c, nil, toActivityResponse(result))
}

// Stream handles POST /v1/activities/stream. Events are sent as SSE with
// the event type as the SSE event name and the JSON event as data.
func (h *ActivityHandler) Stream(c *gin.Context) {
	var req RunActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind activity request"), nil)
		return
	}

	sr, err := h.svc.Stream(c.Request.Context(), req.toService())
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, startCode(err, ErrStreamStart), "stream activity"), nil)
		return
	}
	defer sr.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	seq := 0
	c.Stream(func(w io.Writer) bool {
		ev, err := sr.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("[Activities] stream recv error: %v", err)
			}
			return false
		}
		data, err := json.MarshalToString(ev)
		if err != nil {
			logger.Warn("[Activities] marshal event error: %v", err)
			return true
		}
		seq++
		if err := sse.Encode(w, sse.Event{
			Id:    strconv.Itoa(seq),
			Event: string(ev.Type),
			Data:  data,
		}); err != nil {
			logger.Warn("[Activities] write event error: %v", err)
			return false
		}
		return ev.Type != entity.EventDone
	})
}

// Get handles GET /v1/activities/:id.
func (h *ActivityHandler) Get(c *gin.Context) {
	id := c.Param("id")
	result, err := h.svc.GetActivity(c.Request.Context(), id)
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, recordCode(err, ErrActivityList), "get activity %q", id), nil)
		return
	}
	core.WriteResponse(c, nil, toActivityResponse(result))
}

// List handles GET /v1/activities?status=&tool_set=&limit=.
func (h *ActivityHandler) List(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrValidation, "list activities"), nil)
		return
	}

	results, err := h.svc.ListActivities(c.Request.Context(), filter)
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrActivityList, "list activities"), nil)
		return
	}

	resp := make([]ActivityResponse, 0, len(results))
	for _, r := range results {
		resp = append(resp, toActivityResponse(r))
	}
	core.WriteResponse(c, nil, gin.H{"data": resp})
}

// Delete handles DELETE /v1/activities/:id.
func (h *ActivityHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.DeleteActivity(c.Request.Context(), id); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, recordCode(err, ErrActivityDelete), "delete activity %q", id), nil)
		return
	}
	core.WriteResponse(c, nil, gin.H{"id": id, "deleted": true})
}

func parseListFilter(c *gin.Context) (repo.ListFilter, error) {
	filter := repo.ListFilter{
		Status:  entity.ActivityStatus(c.Query("status")),
		ToolSet: c.Query("tool_set"),
	}
	switch filter.Status {
	case "", entity.ActivityStatusCompleted, entity.ActivityStatusErrorRecovery,
		entity.ActivityStatusTerminated, entity.ActivityStatusMaxIterations:
	default:
		return filter, fmt.Errorf("unknown status %q", filter.Status)
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, fmt.Errorf("limit must be a non-negative integer, got %q", raw)
		}
		filter.Limit = limit
	}
	return filter, nil
}
