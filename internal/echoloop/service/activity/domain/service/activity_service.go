package service

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/repo"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service/oracle"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service/runtime"
	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
)

// ActivityService is the application-level service interface for running
// activities and reading back their results.
//
// It provides:
// - Activity execution, blocking or streamed
// - Access to stored activity results
// - The tool set catalog
// - Live activity limits
type ActivityService interface {
	// --- Execution ---

	// Run executes an activity to a terminal status and stores the result.
	Run(ctx context.Context, req *RunActivityRequest) (*entity.ActivityResult, error)

	// Stream starts an activity and returns a streaming event reader.
	// Events are consumed via sr.Recv() until io.EOF is received. The last
	// event is EventDone carrying the result.
	Stream(ctx context.Context, req *RunActivityRequest) (*schema.StreamReader[*entity.ActivityEvent], error)

	// --- Results ---

	GetActivity(ctx context.Context, id string) (*entity.ActivityResult, error)
	ListActivities(ctx context.Context, filter repo.ListFilter) ([]*entity.ActivityResult, error)
	DeleteActivity(ctx context.Context, id string) error

	// --- Catalog and limits ---

	ToolSets() []tool.ToolSet
	Limits() Limits
	SetLimits(l Limits)
}

// RunActivityRequest is the input to ActivityService.Run and Stream.
// Zero limits fall back to the service limits.
type RunActivityRequest struct {
	UserQuery      string
	Goal           string
	ActivityID     string
	ToolSet        string
	MaxIterations  int
	TimeoutSeconds float64
	// Observer receives progress callbacks in addition to the stream.
	Observer runtime.Observer
}

// Limits bound every activity started by the service.
type Limits struct {
	MaxIterations          int           `json:"max_iterations"`
	Timeout                time.Duration `json:"timeout"`
	MaxHistoryLength       int           `json:"max_history_length"`
	AutoSummarizeThreshold int           `json:"auto_summarize_threshold"`
}

func (l Limits) complete() Limits {
	if l.MaxIterations <= 0 {
		l.MaxIterations = runtime.DefaultMaxIterations
	}
	if l.Timeout <= 0 {
		l.Timeout = runtime.DefaultTimeout
	}
	if l.MaxHistoryLength <= 0 {
		l.MaxHistoryLength = runtime.DefaultMaxHistoryLength
	}
	if l.AutoSummarizeThreshold <= 0 {
		l.AutoSummarizeThreshold = runtime.DefaultAutoSummarizeThreshold
	}
	return l
}

// OracleFactory builds the decision oracle for one activity. tools holds the
// activity's loaded tool set.
type OracleFactory func(ctx context.Context, tools *tool.Registry) (oracle.Oracle, error)
