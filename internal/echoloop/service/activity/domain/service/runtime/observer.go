package runtime

import (
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
)

// Observer receives progress events from a running activity. Callbacks run
// synchronously on the controller's goroutine.
type Observer interface {
	OnIteration(state *entity.ConversationState, decision *entity.ActionDecision)
	OnToolResult(activityID string, iteration int, result entity.ToolExecutionResult)
	OnFinish(result *entity.ActivityResult)
}

// ObserverFuncs is an Observer built from optional callbacks.
type ObserverFuncs struct {
	Iteration  func(state *entity.ConversationState, decision *entity.ActionDecision)
	ToolResult func(activityID string, iteration int, result entity.ToolExecutionResult)
	Finish     func(result *entity.ActivityResult)
}

func (o ObserverFuncs) OnIteration(state *entity.ConversationState, decision *entity.ActionDecision) {
	if o.Iteration != nil {
		o.Iteration(state, decision)
	}
}

func (o ObserverFuncs) OnToolResult(activityID string, iteration int, result entity.ToolExecutionResult) {
	if o.ToolResult != nil {
		o.ToolResult(activityID, iteration, result)
	}
}

func (o ObserverFuncs) OnFinish(result *entity.ActivityResult) {
	if o.Finish != nil {
		o.Finish(result)
	}
}

type multiObserver []Observer

// MultiObserver fans events out to every non-nil observer in order.
func MultiObserver(observers ...Observer) Observer {
	out := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m multiObserver) OnIteration(state *entity.ConversationState, decision *entity.ActionDecision) {
	for _, o := range m {
		o.OnIteration(state, decision)
	}
}

func (m multiObserver) OnToolResult(activityID string, iteration int, result entity.ToolExecutionResult) {
	for _, o := range m {
		o.OnToolResult(activityID, iteration, result)
	}
}

func (m multiObserver) OnFinish(result *entity.ActivityResult) {
	for _, o := range m {
		o.OnFinish(result)
	}
}
