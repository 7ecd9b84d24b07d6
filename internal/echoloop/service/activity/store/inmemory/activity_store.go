package inmemory

import (
	"context"
	"sync"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/repo"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
)

var _ repo.ActivityRepository = (*ActivityStore)(nil)

type ActivityStore struct {
	mu         sync.RWMutex
	activities map[string]*entity.ActivityResult
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{
		activities: make(map[string]*entity.ActivityResult),
	}
}

func (s *ActivityStore) Save(_ context.Context, result *entity.ActivityResult) error {
	if result == nil || result.ActivityID == "" {
		return errno.ErrInvalidActivity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[result.ActivityID] = result
	return nil
}

func (s *ActivityStore) Get(_ context.Context, id string) (*entity.ActivityResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.activities[id]
	if !ok {
		return nil, errno.ErrActivityNotFound
	}
	return result, nil
}

func (s *ActivityStore) List(_ context.Context, filter repo.ListFilter) ([]*entity.ActivityResult, error) {
	s.mu.RLock()
	results := make([]*entity.ActivityResult, 0, len(s.activities))
	for _, r := range s.activities {
		if filter.Match(r) {
			results = append(results, r)
		}
	}
	s.mu.RUnlock()
	return filter.Apply(results), nil
}

func (s *ActivityStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[id]; !ok {
		return errno.ErrActivityNotFound
	}
	delete(s.activities, id)
	return nil
}
