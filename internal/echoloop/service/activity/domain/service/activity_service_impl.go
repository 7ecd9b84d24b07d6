package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/repo"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service/runtime"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
	"github.com/kiosk404/echoloop/pkg/logger"
)

// activityServiceImpl implements the ActivityService interface.
type activityServiceImpl struct {
	activityRepo   repo.ActivityRepository
	catalog        *tool.ToolSetRegistry
	oracles        OracleFactory
	summarizer     runtime.Summarizer
	defaultToolSet string

	mu     sync.RWMutex
	limits Limits
}

// ServiceConfig carries the collaborators of the activity service.
type ServiceConfig struct {
	Repo           repo.ActivityRepository
	Catalog        *tool.ToolSetRegistry
	Oracles        OracleFactory
	Summarizer     runtime.Summarizer
	DefaultToolSet string
	Limits         Limits
}

func NewActivityService(cfg ServiceConfig) ActivityService {
	return &activityServiceImpl{
		activityRepo:   cfg.Repo,
		catalog:        cfg.Catalog,
		oracles:        cfg.Oracles,
		summarizer:     cfg.Summarizer,
		defaultToolSet: cfg.DefaultToolSet,
		limits:         cfg.Limits.complete(),
	}
}

func (s *activityServiceImpl) Run(ctx context.Context, req *RunActivityRequest) (*entity.ActivityResult, error) {
	controller, runReq, err := s.prepare(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	result := controller.RunActivity(ctx, runReq)
	s.save(ctx, result)
	return result, nil
}

func (s *activityServiceImpl) Stream(ctx context.Context, req *RunActivityRequest) (*schema.StreamReader[*entity.ActivityEvent], error) {
	sr, sw := schema.Pipe[*entity.ActivityEvent](20)

	forward := runtime.ObserverFuncs{
		Iteration: func(state *entity.ConversationState, decision *entity.ActionDecision) {
			sw.Send(&entity.ActivityEvent{
				Type:       entity.EventIteration,
				ActivityID: state.ActivityID,
				Iteration:  state.IterationCount,
				Decision:   decision,
			}, nil)
		},
		ToolResult: func(activityID string, iteration int, result entity.ToolExecutionResult) {
			res := result
			sw.Send(&entity.ActivityEvent{
				Type:       entity.EventToolResult,
				ActivityID: activityID,
				Iteration:  iteration,
				ToolResult: &res,
			}, nil)
		},
	}

	controller, runReq, err := s.prepare(ctx, req, forward)
	if err != nil {
		sw.Close()
		return nil, err
	}

	go func() {
		defer sw.Close()
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorX(pkg.ModuleName, "[ActivityService] stream for %s panicked: %v", runReq.ActivityID, r)
				sw.Send(&entity.ActivityEvent{
					Type:       entity.EventError,
					ActivityID: runReq.ActivityID,
					Error:      fmt.Sprintf("%v", r),
				}, nil)
			}
		}()

		result := controller.RunActivity(ctx, runReq)
		s.save(ctx, result)
		sw.Send(&entity.ActivityEvent{
			Type:       entity.EventDone,
			ActivityID: result.ActivityID,
			Iteration:  result.TotalIterations,
			Result:     result,
		}, nil)
	}()

	return sr, nil
}

// prepare builds a controller bound to a fresh registry holding the
// requested tool set.
func (s *activityServiceImpl) prepare(ctx context.Context, req *RunActivityRequest, extra runtime.Observer) (*runtime.ActivityController, runtime.RunRequest, error) {
	if req == nil || strings.TrimSpace(req.UserQuery) == "" {
		return nil, runtime.RunRequest{}, errno.ErrEmptyQuery
	}
	if s.oracles == nil {
		return nil, runtime.RunRequest{}, errno.ErrOracleRequired
	}

	toolSet := req.ToolSet
	if toolSet == "" {
		toolSet = s.defaultToolSet
	}
	registry := tool.NewRegistry()
	if toolSet != "" {
		if s.catalog == nil {
			return nil, runtime.RunRequest{}, fmt.Errorf("%w: %s", tool.ErrToolSetNotFound, toolSet)
		}
		if err := s.catalog.Load(toolSet, registry); err != nil {
			return nil, runtime.RunRequest{}, err
		}
	}

	o, err := s.oracles(ctx, registry)
	if err != nil {
		return nil, runtime.RunRequest{}, fmt.Errorf("failed to build decision oracle: %w", err)
	}

	limits := s.Limits()
	if req.MaxIterations > 0 {
		limits.MaxIterations = req.MaxIterations
	}
	if req.TimeoutSeconds > 0 {
		limits.Timeout = time.Duration(req.TimeoutSeconds * float64(time.Second))
	}

	activityID := req.ActivityID
	if activityID == "" {
		activityID = runtime.NewActivityID()
	}

	controller := runtime.NewActivityController(
		runtime.NewAgentLoop(o, registry),
		registry,
		runtime.NewConversationManager(limits.MaxHistoryLength, limits.AutoSummarizeThreshold, s.summarizer),
		runtime.Options{
			MaxIterations: limits.MaxIterations,
			Timeout:       limits.Timeout,
			ToolSetName:   toolSet,
			Observer:      runtime.MultiObserver(extra, req.Observer),
		},
	)

	logger.DebugX(pkg.ModuleName, "[ActivityService] prepared activity %s (tool_set=%s, tools=%d)",
		activityID, toolSet, registry.Len())

	return controller, runtime.RunRequest{
		UserQuery:  req.UserQuery,
		Goal:       req.Goal,
		ActivityID: activityID,
	}, nil
}

func (s *activityServiceImpl) save(ctx context.Context, result *entity.ActivityResult) {
	if s.activityRepo == nil || result == nil {
		return
	}
	// The run context may already be cancelled; the record is still kept.
	if err := s.activityRepo.Save(context.WithoutCancel(ctx), result); err != nil {
		logger.WarnX(pkg.ModuleName, "[ActivityService] failed to store activity %s: %v", result.ActivityID, err)
	}
}

func (s *activityServiceImpl) GetActivity(ctx context.Context, id string) (*entity.ActivityResult, error) {
	if s.activityRepo == nil {
		return nil, errno.ErrActivityNotFound
	}
	return s.activityRepo.Get(ctx, id)
}

func (s *activityServiceImpl) ListActivities(ctx context.Context, filter repo.ListFilter) ([]*entity.ActivityResult, error) {
	if s.activityRepo == nil {
		return []*entity.ActivityResult{}, nil
	}
	return s.activityRepo.List(ctx, filter)
}

func (s *activityServiceImpl) DeleteActivity(ctx context.Context, id string) error {
	if s.activityRepo == nil {
		return errno.ErrActivityNotFound
	}
	return s.activityRepo.Delete(ctx, id)
}

func (s *activityServiceImpl) ToolSets() []tool.ToolSet {
	if s.catalog == nil {
		return []tool.ToolSet{}
	}
	return s.catalog.List()
}

func (s *activityServiceImpl) Limits() Limits {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limits
}

func (s *activityServiceImpl) SetLimits(l Limits) {
	l = l.complete()
	s.mu.Lock()
	s.limits = l
	s.mu.Unlock()
	logger.InfoX(pkg.ModuleName, "[ActivityService] limits updated: max_iterations=%d timeout=%s history=%d/%d",
		l.MaxIterations, l.Timeout, l.MaxHistoryLength, l.AutoSummarizeThreshold)
}
