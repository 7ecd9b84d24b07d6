package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/kiosk404/echoloop/pkg/logger"
)

const (
	DefaultMaxIterations = 5
	DefaultTimeout       = 30 * time.Second

	continueInput = "Continue"
)

// ToolExecutor runs one tool call and never fails.
type ToolExecutor interface {
	Execute(ctx context.Context, call entity.ToolCall) entity.ToolExecutionResult
}

// Options are the per-controller limits.
type Options struct {
	MaxIterations int
	Timeout       time.Duration
	ToolSetName   string
	Observer      Observer
}

// RunRequest is the input to ActivityController.RunActivity.
type RunRequest struct {
	UserQuery string
	// Goal is optional.
	Goal string
	// ActivityID is generated when empty.
	ActivityID string
}

// ActivityController drives one activity at a time through the iteration loop:
//
//  1. Check the deadline (between iterations only)
//  2. Increment the iteration count
//  3. Ask the agent loop for the next action
//  4. Dispatch it, running any tool calls sequentially
//
// until a terminal action, the deadline or the iteration budget ends it.
// A controller has no state of its own between runs.
type ActivityController struct {
	loop    ActionSource
	tools   ToolExecutor
	history *ConversationManager
	opts    Options
	now     func() time.Time
}

// NewActivityController applies default limits to zero options.
// A nil history keeps every entry.
func NewActivityController(loop ActionSource, tools ToolExecutor, history *ConversationManager, opts Options) *ActivityController {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &ActivityController{
		loop:    loop,
		tools:   tools,
		history: history,
		opts:    opts,
		now:     time.Now,
	}
}

// NewActivityID returns an id of the form activity_<8 hex>.
func NewActivityID() string {
	return "activity_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// activityRun is the mutable bookkeeping of one RunActivity call.
type activityRun struct {
	state          *entity.ConversationState
	sm             *ActivityStateMachine
	deadline       *Deadline
	totalToolCalls int
	toolsUsed      map[string]struct{}
	errors         []string
	finalResponse  string
	// log keeps every appended entry, before truncation or compression.
	log []entity.ConversationEntry
}

// RunActivity runs req to a terminal status. It never panics and always
// returns a result with a non-empty final response.
func (c *ActivityController) RunActivity(ctx context.Context, req RunRequest) *entity.ActivityResult {
	activityID := req.ActivityID
	if activityID == "" {
		activityID = NewActivityID()
	}

	state := entity.NewConversationState(activityID, req.UserQuery, req.Goal, c.opts.MaxIterations, c.opts.ToolSetName)
	state.StartTime = c.now()
	run := &activityRun{
		state:     state,
		sm:        NewActivityStateMachine(activityID),
		deadline:  NewDeadline(ctx, activityID, c.opts.Timeout, c.now),
		toolsUsed: make(map[string]struct{}),
		errors:    make([]string, 0),
	}

	logger.InfoX(pkg.ModuleName, "[ActivityController] start activity %s (max_iterations=%d, timeout=%s, tool_set=%s)",
		activityID, c.opts.MaxIterations, c.opts.Timeout, c.opts.ToolSetName)

	if c.loop == nil || c.tools == nil {
		c.fail(run, "Unexpected error: activity controller is not fully configured")
		return c.finish(run)
	}

	for state.IterationCount < c.opts.MaxIterations {
		if err := run.deadline.Check(); err != nil {
			c.terminate(ctx, run, err)
			break
		}
		if stop := c.iterate(ctx, run); stop {
			break
		}
	}
	if !run.sm.IsTerminal() {
		_ = run.sm.TransitionToMaxIterations()
	}
	return c.finish(run)
}

func (c *ActivityController) iterate(ctx context.Context, run *activityRun) (stop bool) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(run, fmt.Sprintf("Unexpected error: %v", r))
			stop = true
		}
	}()

	state := run.state
	state.IterationCount++
	decision := c.loop.GetNextAction(ctx, state)
	if decision == nil {
		c.fail(run, "Unexpected error: agent loop returned no decision")
		return true
	}
	logger.DebugX(pkg.ModuleName, "[ActivityController] activity %s iteration %d: %s (calls=%d)",
		state.ActivityID, state.IterationCount, decision.ActionType, len(decision.ToolCalls))
	c.observer().OnIteration(state, decision)

	switch decision.ActionType {
	case entity.ActionFinalResponse:
		c.complete(run, decision)
		return true

	case entity.ActionErrorRecovery:
		c.fail(run, decision.Reasoning)
		return true

	case entity.ActionToolExecution:
		results := c.executeTools(ctx, run, decision.ToolCalls)
		state.LastToolResults = results
		c.appendEntry(ctx, run, decision, results)
		if !decision.ShouldContinue {
			c.complete(run, decision)
			return true
		}
		return false

	default:
		return false
	}
}

func (c *ActivityController) executeTools(ctx context.Context, run *activityRun, calls []entity.ToolCall) []entity.ToolExecutionResult {
	results := make([]entity.ToolExecutionResult, 0, len(calls))
	for _, call := range calls {
		res := c.tools.Execute(ctx, call)
		results = append(results, res)
		run.totalToolCalls++
		run.toolsUsed[res.ToolName] = struct{}{}
		if !res.Success {
			run.errors = append(run.errors, fmt.Sprintf("Tool %s: %s", res.ToolName, res.Error))
		}
		c.observer().OnToolResult(run.state.ActivityID, run.state.IterationCount, res)
	}
	return results
}

func (c *ActivityController) appendEntry(ctx context.Context, run *activityRun, decision *entity.ActionDecision, results []entity.ToolExecutionResult) {
	state := run.state
	input := continueInput
	if state.IterationCount == 1 {
		input = state.UserQuery
	}
	calls := make([]entity.ToolCall, 0, len(decision.ToolCalls))
	for _, tc := range decision.ToolCalls {
		calls = append(calls, entity.NewToolCall(tc.ToolName, tc.Arguments))
	}
	entry := entity.ConversationEntry{
		Iteration:     state.IterationCount,
		UserInput:     input,
		Response:      decision.Reasoning,
		ToolCallsMade: calls,
		ToolResults:   results,
		Timestamp:     c.now(),
	}
	run.log = append(run.log, entry)
	if c.history == nil {
		state.ConversationHistory = append(state.ConversationHistory, entry)
		return
	}
	state.ConversationHistory = c.history.Append(ctx, state.ConversationHistory, entry)
}

func (c *ActivityController) complete(run *activityRun, decision *entity.ActionDecision) {
	run.finalResponse = decision.FinalResponse
	if run.finalResponse == "" {
		run.finalResponse = "Activity completed successfully."
	}
	_ = run.sm.TransitionToCompleted()
}

func (c *ActivityController) fail(run *activityRun, message string) {
	run.errors = append(run.errors, message)
	run.finalResponse = "Activity failed: " + message
	_ = run.sm.TransitionToErrorRecovery(message)
}

func (c *ActivityController) terminate(ctx context.Context, run *activityRun, err error) {
	if errors.Is(err, errno.ErrTimedOut) {
		run.finalResponse = fmt.Sprintf("Activity timed out after %s seconds.",
			strconv.FormatFloat(c.opts.Timeout.Seconds(), 'f', -1, 64))
		_ = run.sm.TransitionToTerminated(err.Error())
		return
	}
	cause := err
	if ctx.Err() != nil {
		cause = ctx.Err()
	}
	run.finalResponse = "Activity cancelled: " + cause.Error()
	_ = run.sm.TransitionToTerminated(cause.Error())
}

func (c *ActivityController) finish(run *activityRun) *entity.ActivityResult {
	state := run.state
	if run.sm.State() == StateMaxIterations {
		run.finalResponse = fmt.Sprintf("Activity reached maximum iterations (%d).", c.opts.MaxIterations)
	}

	toolsUsed := make([]string, 0, len(run.toolsUsed))
	for name := range run.toolsUsed {
		toolsUsed = append(toolsUsed, name)
	}
	sort.Strings(toolsUsed)

	toolSet := c.opts.ToolSetName
	if toolSet == "" {
		toolSet = entity.UnknownToolSet
	}

	frozen, err := entity.FreezeState(state)
	if err != nil {
		logger.WarnX(pkg.ModuleName, "[ActivityController] activity %s: %v", state.ActivityID, err)
		frozen = nil
	}

	result := &entity.ActivityResult{
		ActivityID:        state.ActivityID,
		Status:            run.sm.Status(),
		FinalResponse:     run.finalResponse,
		TotalIterations:   state.IterationCount,
		TotalToolCalls:    run.totalToolCalls,
		ExecutionTime:     run.deadline.Elapsed().Seconds(),
		ToolsUsed:         toolsUsed,
		ErrorsEncountered: run.errors,
		ConversationState: frozen,
		ToolSetName:       toolSet,
		Metadata: map[string]interface{}{
			"tool_set":        toolSet,
			"max_iterations":  c.opts.MaxIterations,
			"timeout_seconds": c.opts.Timeout.Seconds(),
			"history_stats":   Stats(run.log),
		},
	}

	logger.InfoX(pkg.ModuleName, "[ActivityController] activity %s finished: status=%s iterations=%d tool_calls=%d",
		result.ActivityID, result.Status, result.TotalIterations, result.TotalToolCalls)
	c.notifyFinish(result)
	return result
}

func (c *ActivityController) notifyFinish(result *entity.ActivityResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorX(pkg.ModuleName, "[ActivityController] observer panicked on finish: %v", r)
		}
	}()
	c.observer().OnFinish(result)
}

func (c *ActivityController) observer() Observer {
	if c.opts.Observer == nil {
		return ObserverFuncs{}
	}
	return c.opts.Observer
}
