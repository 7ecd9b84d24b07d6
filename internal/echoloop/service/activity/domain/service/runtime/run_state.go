package runtime

import (
	"fmt"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/kiosk404/echoloop/pkg/logger"
)

// ActivityState is a node of the activity lifecycle.
type ActivityState string

const (
	StateRunning       ActivityState = "running"
	StateCompleted     ActivityState = "completed"
	StateErrorRecovery ActivityState = "error_recovery"
	StateTerminated    ActivityState = "terminated"
	StateMaxIterations ActivityState = "max_iterations"
)

// ActivityStateMachine manages the lifecycle of one activity.
// Running -> Completed | ErrorRecovery | Terminated | MaxIterations.
// Every state other than Running is terminal.
type ActivityStateMachine struct {
	activityID string
	state      ActivityState
	reason     string
}

// NewActivityStateMachine starts in Running.
func NewActivityStateMachine(activityID string) *ActivityStateMachine {
	return &ActivityStateMachine{activityID: activityID, state: StateRunning}
}

func (sm *ActivityStateMachine) transition(to ActivityState, reason string) error {
	if sm.state != StateRunning {
		return fmt.Errorf("%w: %s -> %s", errno.ErrInvalidTransition, sm.state, to)
	}
	sm.state = to
	sm.reason = reason
	if to == StateErrorRecovery {
		logger.ErrorX(pkg.ModuleName, "[ActivityState] activity %s -> %s, err: %s", sm.activityID, to, reason)
		return nil
	}
	logger.InfoX(pkg.ModuleName, "[ActivityState] activity %s -> %s", sm.activityID, to)
	return nil
}

// TransitionToCompleted ends the activity successfully.
func (sm *ActivityStateMachine) TransitionToCompleted() error {
	return sm.transition(StateCompleted, "")
}

// TransitionToErrorRecovery ends the activity with an error message.
func (sm *ActivityStateMachine) TransitionToErrorRecovery(message string) error {
	return sm.transition(StateErrorRecovery, message)
}

// TransitionToTerminated ends the activity on timeout or cancellation.
func (sm *ActivityStateMachine) TransitionToTerminated(reason string) error {
	return sm.transition(StateTerminated, reason)
}

// TransitionToMaxIterations ends the activity when the iteration budget is exhausted.
func (sm *ActivityStateMachine) TransitionToMaxIterations() error {
	return sm.transition(StateMaxIterations, "")
}

func (sm *ActivityStateMachine) State() ActivityState { return sm.state }

// Reason is the message recorded with the terminal transition.
func (sm *ActivityStateMachine) Reason() string { return sm.reason }

func (sm *ActivityStateMachine) IsTerminal() bool { return sm.state != StateRunning }

// Status maps the terminal state onto the result status.
func (sm *ActivityStateMachine) Status() entity.ActivityStatus {
	switch sm.state {
	case StateCompleted:
		return entity.ActivityStatusCompleted
	case StateTerminated:
		return entity.ActivityStatusTerminated
	case StateMaxIterations:
		return entity.ActivityStatusMaxIterations
	default:
		return entity.ActivityStatusErrorRecovery
	}
}
