package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/kiosk404/echoloop/pkg/logger"
)

// Deadline tracks the wall-clock budget of one activity.
//
// It is cooperative: the controller samples it between iterations and never
// interrupts an in-flight oracle or tool call. Cancelling the parent context
// or calling Abort has the same effect at the next check.
type Deadline struct {
	parent     context.Context
	start      time.Time
	timeout    time.Duration
	now        func() time.Time
	mu         sync.Mutex
	aborted    bool
	activityID string
}

// NewDeadline starts the clock. A non-positive timeout never expires.
func NewDeadline(parent context.Context, activityID string, timeout time.Duration, now func() time.Time) *Deadline {
	if now == nil {
		now = time.Now
	}
	return &Deadline{
		parent:     parent,
		start:      now(),
		timeout:    timeout,
		now:        now,
		activityID: activityID,
	}
}

// Elapsed is the time since the deadline was created.
func (d *Deadline) Elapsed() time.Duration {
	return d.now().Sub(d.start)
}

// Abort asks the controller to stop at the next iteration boundary.
// It is safe to call Abort multiple times.
func (d *Deadline) Abort() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.aborted {
		return
	}
	d.aborted = true
	logger.InfoX(pkg.ModuleName, "[Deadline] abort activity %s", d.activityID)
}

// Check returns errno.ErrAborted when aborted or the parent is done,
// errno.ErrTimedOut when the budget is spent, and nil otherwise.
func (d *Deadline) Check() error {
	d.mu.Lock()
	aborted := d.aborted
	d.mu.Unlock()
	if aborted {
		return errno.ErrAborted
	}
	if d.parent != nil {
		select {
		case <-d.parent.Done():
			return errno.ErrAborted
		default:
		}
	}
	if d.timeout > 0 && d.Elapsed() > d.timeout {
		return errno.ErrTimedOut
	}
	return nil
}
