package repo

import (
	"context"
	"sort"
	"time"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
)

// ActivityRepository defines the persistence interface for finished activities.
type ActivityRepository interface {
	// Save stores a result, replacing any earlier record with the same ID.
	Save(ctx context.Context, result *entity.ActivityResult) error
	// Get retrieves a result by activity ID.
	Get(ctx context.Context, id string) (*entity.ActivityResult, error)
	// List returns the results matching filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*entity.ActivityResult, error)
	// Delete removes a result by activity ID.
	Delete(ctx context.Context, id string) error
}

// ListFilter narrows ActivityRepository.List. Zero fields match everything.
type ListFilter struct {
	Status  entity.ActivityStatus
	ToolSet string
	Limit   int
}

// Match reports whether r passes the filter.
func (f ListFilter) Match(r *entity.ActivityResult) bool {
	if r == nil {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.ToolSet != "" && r.ToolSetName != f.ToolSet {
		return false
	}
	return true
}

// Apply sorts results newest first and cuts them to the limit.
func (f ListFilter) Apply(results []*entity.ActivityResult) []*entity.ActivityResult {
	sort.SliceStable(results, func(i, j int) bool {
		ti, tj := startTime(results[i]), startTime(results[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return results[i].ActivityID < results[j].ActivityID
	})
	if f.Limit > 0 && len(results) > f.Limit {
		results = results[:f.Limit]
	}
	return results
}

func startTime(r *entity.ActivityResult) time.Time {
	if r.ConversationState == nil {
		return time.Time{}
	}
	return r.ConversationState.StartTime
}
