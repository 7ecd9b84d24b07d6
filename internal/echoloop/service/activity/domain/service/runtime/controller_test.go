package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service/oracle"
	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
	"github.com/kiosk404/echoloop/internal/echoloop/service/tool/builtin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoop returns its decisions in order and repeats the last one.
type fakeLoop struct {
	decisions []*entity.ActionDecision
	calls     int
	onCall    func(state *entity.ConversationState)
	panicWith interface{}
}

func (f *fakeLoop) GetNextAction(_ context.Context, state *entity.ConversationState) *entity.ActionDecision {
	f.calls++
	if f.onCall != nil {
		f.onCall(state)
	}
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	idx := f.calls - 1
	if idx >= len(f.decisions) {
		idx = len(f.decisions) - 1
	}
	d := *f.decisions[idx]
	d.IterationCount = state.IterationCount
	return &d
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type staticCatalog []string

func (s staticCatalog) Names() []string { return s }

func (s staticCatalog) Descriptions() string { return `[{"name":"search","description":"web search"}]` }

func continueAction() *entity.ActionDecision {
	return &entity.ActionDecision{ActionType: entity.ActionContinue, Reasoning: "Keep going", ShouldContinue: true, ConfidenceScore: 0.5}
}

func finalAction(resp string) *entity.ActionDecision {
	return &entity.ActionDecision{ActionType: entity.ActionFinalResponse, Reasoning: "Done thinking", FinalResponse: resp, ConfidenceScore: 1}
}

func TestRunActivity_MaxIterations(t *testing.T) {
	loop := &fakeLoop{decisions: []*entity.ActionDecision{continueAction()}}
	c := NewActivityController(loop, tool.NewRegistry(), nil, Options{MaxIterations: 3})

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "Long task"})

	assert.Equal(t, entity.ActivityStatusMaxIterations, res.Status)
	assert.Equal(t, 3, res.TotalIterations)
	assert.Equal(t, "Activity reached maximum iterations (3).", res.FinalResponse)
	assert.Contains(t, res.FinalResponse, "maximum iterations")
	assert.Equal(t, 3, loop.calls)

	// Iterations without tool calls leave no history entry.
	require.NotNil(t, res.ConversationState)
	assert.Equal(t, 3, res.ConversationState.IterationCount)
	assert.Empty(t, res.ConversationState.ConversationHistory)
}

func TestRunActivity_GoalCheckLoops(t *testing.T) {
	goalCheck := continueAction()
	goalCheck.ActionType = entity.ActionGoalCheck
	loop := &fakeLoop{decisions: []*entity.ActionDecision{goalCheck}}
	c := NewActivityController(loop, tool.NewRegistry(), nil, Options{MaxIterations: 3})

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "q"})
	assert.Equal(t, entity.ActivityStatusMaxIterations, res.Status)
	assert.Equal(t, 3, res.TotalIterations)
}

func TestRunActivity_ImmediateFinalResponse(t *testing.T) {
	o := oracle.Func(func(context.Context, *oracle.Request) (*oracle.Decision, error) {
		return &oracle.Decision{ShouldContinue: false, FinalResponse: "done", Confidence: 1}, nil
	})
	reg := tool.NewRegistry()
	c := NewActivityController(NewAgentLoop(o, reg), reg, nil, Options{})

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "hi", ActivityID: "activity_fixed"})

	assert.Equal(t, entity.ActivityStatusCompleted, res.Status)
	assert.Equal(t, "done", res.FinalResponse)
	assert.Equal(t, 1, res.TotalIterations)
	assert.Equal(t, 0, res.TotalToolCalls)
	assert.Empty(t, res.ToolsUsed)
	assert.Empty(t, res.ErrorsEncountered)
	assert.Equal(t, "activity_fixed", res.ActivityID)
	assert.Equal(t, entity.UnknownToolSet, res.ToolSetName)
	assert.Empty(t, res.ConversationState.ConversationHistory)
}

func TestRunActivity_CompletedWithoutFinalResponse(t *testing.T) {
	loop := &fakeLoop{decisions: []*entity.ActionDecision{finalAction("")}}
	c := NewActivityController(loop, tool.NewRegistry(), nil, Options{})

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "hi"})
	assert.Equal(t, entity.ActivityStatusCompleted, res.Status)
	assert.Equal(t, "Activity completed successfully.", res.FinalResponse)
}

func TestRunActivity_UnknownToolDoesNotAbort(t *testing.T) {
	calls := 0
	o := oracle.Func(func(context.Context, *oracle.Request) (*oracle.Decision, error) {
		calls++
		if calls == 1 {
			return &oracle.Decision{
				OverallReasoning: "Search first",
				ShouldUseTools:   true,
				ShouldContinue:   true,
				ToolCalls:        []entity.ToolCall{{ToolName: "search", Arguments: map[string]interface{}{"q": "go"}}},
			}, nil
		}
		return &oracle.Decision{ShouldContinue: false, FinalResponse: "gave up on search"}, nil
	})
	// The loop believes "search" exists while the registry does not have it.
	loop := NewAgentLoop(o, staticCatalog{"search"})
	c := NewActivityController(loop, tool.NewRegistry(), nil, Options{})

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "find go"})

	assert.Equal(t, entity.ActivityStatusCompleted, res.Status)
	assert.Equal(t, 2, res.TotalIterations)
	assert.Equal(t, 1, res.TotalToolCalls)
	assert.Equal(t, []string{"search"}, res.ToolsUsed)
	assert.Equal(t, []string{"Tool search: Unknown tool: search"}, res.ErrorsEncountered)

	first := res.ConversationState.ConversationHistory[0]
	require.Len(t, first.ToolResults, 1)
	assert.False(t, first.ToolResults[0].Success)
	assert.Equal(t, "Unknown tool: search", first.ToolResults[0].Error)
}

func TestRunActivity_ToolExecutionWithoutContinue(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, builtin.NewInTreeCatalog().Load(builtin.TreasureHunt, reg))
	loop := &fakeLoop{decisions: []*entity.ActionDecision{{
		ActionType:    entity.ActionToolExecution,
		ToolCalls:     []entity.ToolCall{{ToolName: "give_hint", Arguments: map[string]interface{}{}}},
		Reasoning:     "One hint is enough",
		FinalResponse: "Here is your hint.",
	}}}
	c := NewActivityController(loop, reg, nil, Options{ToolSetName: builtin.TreasureHunt})

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "hint please"})

	assert.Equal(t, entity.ActivityStatusCompleted, res.Status)
	assert.Equal(t, "Here is your hint.", res.FinalResponse)
	assert.Equal(t, 1, res.TotalToolCalls)
	assert.Equal(t, builtin.TreasureHunt, res.ToolSetName)
	require.Len(t, res.ConversationState.LastToolResults, 1)
	assert.True(t, res.ConversationState.LastToolResults[0].Success)
}

func TestRunActivity_TreasureHuntScript(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, builtin.NewInTreeCatalog().Load(builtin.TreasureHunt, reg))
	scripted := oracle.NewScripted(oracle.DemoScript()...)

	var iterations, toolResults int
	var finished *entity.ActivityResult
	obs := ObserverFuncs{
		Iteration:  func(*entity.ConversationState, *entity.ActionDecision) { iterations++ },
		ToolResult: func(string, int, entity.ToolExecutionResult) { toolResults++ },
		Finish:     func(r *entity.ActivityResult) { finished = r },
	}
	c := NewActivityController(NewAgentLoop(scripted, reg), reg, NewConversationManager(0, 0, nil),
		Options{ToolSetName: builtin.TreasureHunt, Observer: obs})

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "Where is the treasure?"})

	assert.Equal(t, entity.ActivityStatusCompleted, res.Status)
	assert.Equal(t, 4, res.TotalIterations)
	assert.Equal(t, 3, res.TotalToolCalls)
	assert.Equal(t, []string{"give_hint", "guess_location"}, res.ToolsUsed)
	assert.Empty(t, res.ErrorsEncountered)
	assert.Contains(t, res.FinalResponse, "Lenora Street")
	assert.Equal(t, 4, iterations)
	assert.Equal(t, 3, toolResults)
	assert.Same(t, res, finished)

	// The second oracle request carries the first hint.
	reqs := scripted.Requests()
	require.Len(t, reqs, 4)
	assert.Contains(t, reqs[1].LastToolResults, "Tool 'give_hint' succeeded")
	assert.Contains(t, reqs[1].ConversationHistory, "Iteration 1:")

	stats, ok := res.Metadata["history_stats"].(HistoryStats)
	require.True(t, ok)
	assert.Equal(t, 3, stats.TotalIterations)
	assert.Equal(t, 3, stats.TotalToolsUsed)
	assert.Equal(t, builtin.TreasureHunt, res.Metadata["tool_set"])

	history := res.ConversationState.ConversationHistory
	require.Len(t, history, 3)
	assert.Equal(t, "Where is the treasure?", history[0].UserInput)
	assert.Equal(t, "Continue", history[1].UserInput)
	assert.Equal(t, []int{1, 2, 3}, []int{history[0].Iteration, history[1].Iteration, history[2].Iteration})
	assert.Equal(t, DefaultMaxIterations, res.Metadata["max_iterations"])
}

func TestRunActivity_StatsCoverTruncatedEntries(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, builtin.NewInTreeCatalog().Load(builtin.TreasureHunt, reg))
	loop := &fakeLoop{decisions: []*entity.ActionDecision{{
		ActionType:     entity.ActionToolExecution,
		ShouldContinue: true,
		Reasoning:      "more hints",
		ToolCalls:      []entity.ToolCall{{ToolName: "give_hint", Arguments: map[string]interface{}{}}},
	}}}
	c := NewActivityController(loop, reg, NewConversationManager(2, 10, nil), Options{MaxIterations: 5})

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "hints"})

	assert.Equal(t, entity.ActivityStatusMaxIterations, res.Status)
	history := res.ConversationState.ConversationHistory
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].Iteration)
	assert.Equal(t, 5, history[1].Iteration)

	stats, ok := res.Metadata["history_stats"].(HistoryStats)
	require.True(t, ok)
	assert.Equal(t, 5, stats.TotalIterations)
	assert.Equal(t, 5, stats.TotalToolsUsed)
	assert.Equal(t, float64(1), stats.SuccessRate)
}

func TestRunActivity_ToolFailureIsRecorded(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, builtin.NewInTreeCatalog().Load(builtin.TreasureHunt, reg))
	loop := &fakeLoop{decisions: []*entity.ActionDecision{
		{
			ActionType:     entity.ActionToolExecution,
			ShouldContinue: true,
			Reasoning:      "try both",
			ToolCalls: []entity.ToolCall{
				{ToolName: "give_hint", Arguments: map[string]interface{}{"hint_total": -1}},
				{ToolName: "give_hint", Arguments: map[string]interface{}{"hint_total": 2}},
			},
		},
		finalAction("ok"),
	}}
	c := NewActivityController(loop, reg, nil, Options{})

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "hints"})

	assert.Equal(t, entity.ActivityStatusCompleted, res.Status)
	assert.Equal(t, 2, res.TotalToolCalls)
	require.Len(t, res.ErrorsEncountered, 1)
	assert.True(t, strings.HasPrefix(res.ErrorsEncountered[0], "Tool give_hint: "))

	results := res.ConversationState.ConversationHistory[0].ToolResults
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Equal(t, entity.ErrorKindValidation, results[0].ErrorKind)
	assert.True(t, results[1].Success)
}

func TestRunActivity_OracleError(t *testing.T) {
	o := oracle.Func(func(context.Context, *oracle.Request) (*oracle.Decision, error) {
		return nil, errors.New("connection refused")
	})
	reg := tool.NewRegistry()
	c := NewActivityController(NewAgentLoop(o, reg), reg, nil, Options{})

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "q"})

	assert.Equal(t, entity.ActivityStatusErrorRecovery, res.Status)
	assert.Equal(t, 1, res.TotalIterations)
	assert.Equal(t, 0, res.TotalToolCalls)
	require.Len(t, res.ErrorsEncountered, 1)
	assert.True(t, strings.HasPrefix(res.FinalResponse, "Activity failed: Error occurred during reasoning: "))
	assert.Contains(t, res.FinalResponse, "connection refused")
	assert.Empty(t, res.ConversationState.ConversationHistory)
}

func TestRunActivity_PanicBecomesErrorRecovery(t *testing.T) {
	loop := &fakeLoop{panicWith: "Unexpected failure in loop"}
	c := NewActivityController(loop, tool.NewRegistry(), nil, Options{})

	var res *entity.ActivityResult
	require.NotPanics(t, func() {
		res = c.RunActivity(context.Background(), RunRequest{UserQuery: "boom"})
	})
	assert.Equal(t, entity.ActivityStatusErrorRecovery, res.Status)
	assert.Equal(t, 1, res.TotalIterations)
	assert.Equal(t, []string{"Unexpected error: Unexpected failure in loop"}, res.ErrorsEncountered)
	assert.Equal(t, "Activity failed: Unexpected error: Unexpected failure in loop", res.FinalResponse)
}

func TestRunActivity_Timeout(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	loop := &fakeLoop{
		decisions: []*entity.ActionDecision{continueAction()},
		onCall:    func(*entity.ConversationState) { clock.Advance(31 * time.Second) },
	}
	c := NewActivityController(loop, tool.NewRegistry(), nil, Options{MaxIterations: 10, Timeout: 30 * time.Second})
	c.now = clock.Now

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "slow"})

	assert.Equal(t, entity.ActivityStatusTerminated, res.Status)
	assert.Equal(t, 1, res.TotalIterations)
	assert.Equal(t, "Activity timed out after 30 seconds.", res.FinalResponse)
	assert.InDelta(t, 31.0, res.ExecutionTime, 1e-9)
}

func TestRunActivity_TimeoutTakesPrecedenceOverMaxIterations(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	loop := &fakeLoop{
		decisions: []*entity.ActionDecision{continueAction()},
		onCall:    func(*entity.ConversationState) { clock.Advance(400 * time.Millisecond) },
	}
	c := NewActivityController(loop, tool.NewRegistry(), nil, Options{MaxIterations: 5, Timeout: time.Second + 500*time.Millisecond})
	c.now = clock.Now

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "slow"})

	assert.Equal(t, entity.ActivityStatusTerminated, res.Status)
	assert.Equal(t, 4, res.TotalIterations)
	assert.Equal(t, "Activity timed out after 1.5 seconds.", res.FinalResponse)
}

func TestRunActivity_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loop := &fakeLoop{decisions: []*entity.ActionDecision{continueAction()}}
	c := NewActivityController(loop, tool.NewRegistry(), nil, Options{})

	res := c.RunActivity(ctx, RunRequest{UserQuery: "q"})

	assert.Equal(t, entity.ActivityStatusTerminated, res.Status)
	assert.Equal(t, 0, res.TotalIterations)
	assert.Equal(t, "Activity cancelled: context canceled", res.FinalResponse)
	assert.Equal(t, 0, loop.calls)
}

func TestRunActivity_NotConfigured(t *testing.T) {
	c := NewActivityController(nil, nil, nil, Options{})
	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "q"})
	assert.Equal(t, entity.ActivityStatusErrorRecovery, res.Status)
	assert.NotEmpty(t, res.FinalResponse)
}

func TestRunActivity_FrozenState(t *testing.T) {
	loop := &fakeLoop{decisions: []*entity.ActionDecision{continueAction(), finalAction("done")}}
	c := NewActivityController(loop, tool.NewRegistry(), nil, Options{})

	res := c.RunActivity(context.Background(), RunRequest{UserQuery: "q", Goal: "g"})
	require.NotNil(t, res.ConversationState)
	assert.Equal(t, 2, res.ConversationState.IterationCount)
	assert.Equal(t, "g", res.ConversationState.Goal)
	assert.Equal(t, res.ActivityID, res.ConversationState.ActivityID)
}

func TestNewActivityID(t *testing.T) {
	id := NewActivityID()
	require.True(t, strings.HasPrefix(id, "activity_"))
	assert.Len(t, id, len("activity_")+8)
	assert.NotEqual(t, id, NewActivityID())
}

func TestMultiObserver(t *testing.T) {
	var got []string
	a := ObserverFuncs{Finish: func(*entity.ActivityResult) { got = append(got, "a") }}
	b := ObserverFuncs{Finish: func(*entity.ActivityResult) { got = append(got, "b") }}
	m := MultiObserver(a, nil, b)
	m.OnIteration(nil, nil)
	m.OnFinish(&entity.ActivityResult{})
	assert.Equal(t, []string{"a", "b"}, got)
}
