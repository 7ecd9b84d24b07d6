package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityStateMachine_Transitions(t *testing.T) {
	cases := []struct {
		name   string
		move   func(sm *ActivityStateMachine) error
		state  ActivityState
		status entity.ActivityStatus
		reason string
	}{
		{"completed", (*ActivityStateMachine).TransitionToCompleted, StateCompleted, entity.ActivityStatusCompleted, ""},
		{"error", func(sm *ActivityStateMachine) error { return sm.TransitionToErrorRecovery("bad") }, StateErrorRecovery, entity.ActivityStatusErrorRecovery, "bad"},
		{"terminated", func(sm *ActivityStateMachine) error { return sm.TransitionToTerminated("timeout") }, StateTerminated, entity.ActivityStatusTerminated, "timeout"},
		{"max", (*ActivityStateMachine).TransitionToMaxIterations, StateMaxIterations, entity.ActivityStatusMaxIterations, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sm := NewActivityStateMachine("a1")
			assert.Equal(t, StateRunning, sm.State())
			assert.False(t, sm.IsTerminal())

			require.NoError(t, tc.move(sm))
			assert.Equal(t, tc.state, sm.State())
			assert.Equal(t, tc.status, sm.Status())
			assert.Equal(t, tc.reason, sm.Reason())
			assert.True(t, sm.IsTerminal())

			err := sm.TransitionToCompleted()
			assert.ErrorIs(t, err, errno.ErrInvalidTransition)
			assert.Equal(t, tc.state, sm.State())
		})
	}
}

func TestDeadline(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	d := NewDeadline(context.Background(), "a1", 2*time.Second, clock.Now)

	assert.NoError(t, d.Check())
	clock.Advance(2 * time.Second)
	assert.NoError(t, d.Check(), "the budget is exceeded only strictly after timeout")
	clock.Advance(time.Millisecond)
	assert.ErrorIs(t, d.Check(), errno.ErrTimedOut)
	assert.Equal(t, 2*time.Second+time.Millisecond, d.Elapsed())
}

func TestDeadline_NoTimeout(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	d := NewDeadline(context.TODO(), "a1", 0, clock.Now)
	clock.Advance(time.Hour)
	assert.NoError(t, d.Check())
}

func TestDeadline_Abort(t *testing.T) {
	d := NewDeadline(context.Background(), "a1", time.Minute, nil)
	d.Abort()
	d.Abort()
	assert.ErrorIs(t, d.Check(), errno.ErrAborted)
}

func TestDeadline_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDeadline(ctx, "a1", time.Minute, nil)
	assert.NoError(t, d.Check())
	cancel()
	assert.ErrorIs(t, d.Check(), errno.ErrAborted)
}
