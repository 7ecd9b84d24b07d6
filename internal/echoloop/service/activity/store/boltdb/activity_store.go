package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/repo"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/kiosk404/echoloop/pkg/utils/json"
)

var _ repo.ActivityRepository = (*ActivityStore)(nil)

// ActivityStore is a BoltDB-backed store for activity results, keyed by activity ID.
type ActivityStore struct {
	db *bolt.DB
}

// NewActivityStore creates a new ActivityStore.
func NewActivityStore(db *DB) *ActivityStore {
	return &ActivityStore{db: db.db}
}

func (s *ActivityStore) Save(_ context.Context, result *entity.ActivityResult) error {
	if result == nil || result.ActivityID == "" {
		return errno.ErrInvalidActivity
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketActivities)
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal activity: %w", err)
		}
		return b.Put([]byte(result.ActivityID), data)
	})
}

func (s *ActivityStore) Get(_ context.Context, id string) (*entity.ActivityResult, error) {
	var result entity.ActivityResult
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketActivities)
		data := b.Get([]byte(id))
		if data == nil {
			return errno.ErrActivityNotFound
		}
		return json.Unmarshal(data, &result)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get activity %q: %w", id, err)
	}
	return &result, nil
}

func (s *ActivityStore) List(_ context.Context, filter repo.ListFilter) ([]*entity.ActivityResult, error) {
	var results []*entity.ActivityResult
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketActivities)
		return b.ForEach(func(k, v []byte) error {
			var r entity.ActivityResult
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("failed to unmarshal activity %q: %w", k, err)
			}
			if filter.Match(&r) {
				results = append(results, &r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return filter.Apply(results), nil
}

func (s *ActivityStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketActivities)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("failed to delete activity %q: %w", id, errno.ErrActivityNotFound)
		}
		return b.Delete([]byte(id))
	})
}
