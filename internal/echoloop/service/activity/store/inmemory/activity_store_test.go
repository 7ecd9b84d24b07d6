package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/repo"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(id string, status entity.ActivityStatus, toolSet string, started int64) *entity.ActivityResult {
	state := entity.NewConversationState(id, "q", "", 5, toolSet)
	state.StartTime = time.Unix(started, 0)
	return &entity.ActivityResult{ActivityID: id, Status: status, ToolSetName: toolSet, ConversationState: state}
}

func TestActivityStore(t *testing.T) {
	ctx := context.Background()
	s := NewActivityStore()

	assert.ErrorIs(t, s.Save(ctx, &entity.ActivityResult{}), errno.ErrInvalidActivity)

	require.NoError(t, s.Save(ctx, result("a1", entity.ActivityStatusCompleted, "events", 100)))
	require.NoError(t, s.Save(ctx, result("a2", entity.ActivityStatusMaxIterations, "events", 300)))
	require.NoError(t, s.Save(ctx, result("a3", entity.ActivityStatusCompleted, "ecommerce", 200)))

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, entity.ActivityStatusCompleted, got.Status)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, errno.ErrActivityNotFound)

	all, err := s.List(ctx, repo.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a2", "a3", "a1"}, []string{all[0].ActivityID, all[1].ActivityID, all[2].ActivityID})

	completed, err := s.List(ctx, repo.ListFilter{Status: entity.ActivityStatusCompleted, Limit: 1})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "a3", completed[0].ActivityID)

	events, err := s.List(ctx, repo.ListFilter{ToolSet: "events"})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	require.NoError(t, s.Delete(ctx, "a1"))
	assert.ErrorIs(t, s.Delete(ctx, "a1"), errno.ErrActivityNotFound)
}
