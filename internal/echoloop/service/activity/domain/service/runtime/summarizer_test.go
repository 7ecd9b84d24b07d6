package runtime

import (
	"context"
	"errors"
	"testing"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replyModel struct {
	reply string
	err   error
	got   []*schema.Message
}

func (m *replyModel) Generate(_ context.Context, in []*schema.Message, _ ...einoModel.Option) (*schema.Message, error) {
	m.got = in
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *replyModel) Stream(ctx context.Context, in []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestHeuristicSummarizer(t *testing.T) {
	_, err := HeuristicSummarizer{}.Summarize(context.Background(), nil)
	assert.ErrorIs(t, err, errno.ErrSummarizeFailed)

	entries := []entity.ConversationEntry{
		{Iteration: 1, Response: "first", ToolCallsMade: []entity.ToolCall{{ToolName: "give_hint"}},
			ToolResults: []entity.ToolExecutionResult{{ToolName: "give_hint", Success: true}}},
		{Iteration: 2, Response: "second"},
		{Iteration: 3, Response: "third"},
	}
	s, err := HeuristicSummarizer{}.Summarize(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, "3 earlier iterations (1 to 3) made 1 tool calls, mostly give_hint x1, success rate 100%.", s.Summary)
	assert.Equal(t, "second | third", s.Context)

	s, err = HeuristicSummarizer{KeepResponses: 10}.Summarize(context.Background(), entries[1:])
	require.NoError(t, err)
	assert.Equal(t, "2 earlier iterations (2 to 3) made 0 tool calls.", s.Summary)
	assert.Equal(t, "second | third", s.Context)
}

func TestChatModelSummarizer_JSONReply(t *testing.T) {
	m := &replyModel{reply: "Sure:\n```json\n{\"summary\": \"hints given\", \"context\": \"city is Seattle\"}\n```"}
	s := NewChatModelSummarizer(m, 0)

	out, err := s.Summarize(context.Background(), makeEntries(3))
	require.NoError(t, err)
	assert.Equal(t, "hints given", out.Summary)
	assert.Equal(t, "city is Seattle", out.Context)

	require.Len(t, m.got, 2)
	assert.Equal(t, schema.System, m.got[0].Role)
	assert.Contains(t, m.got[1].Content, "Keep the summary under 500 tokens")
	assert.Contains(t, m.got[1].Content, "Iteration 3:")
}

func TestChatModelSummarizer_PlainReply(t *testing.T) {
	s := NewChatModelSummarizer(&replyModel{reply: "  three steps, nothing found  "}, 200)
	out, err := s.Summarize(context.Background(), makeEntries(3))
	require.NoError(t, err)
	assert.Equal(t, "three steps, nothing found", out.Summary)
	assert.Empty(t, out.Context)
}

func TestChatModelSummarizer_Errors(t *testing.T) {
	_, err := NewChatModelSummarizer(nil, 0).Summarize(context.Background(), makeEntries(1))
	assert.ErrorIs(t, err, errno.ErrSummarizeFailed)

	boom := errors.New("quota exceeded")
	_, err = NewChatModelSummarizer(&replyModel{err: boom}, 0).Summarize(context.Background(), makeEntries(1))
	assert.ErrorIs(t, err, errno.ErrSummarizeFailed)
	assert.ErrorIs(t, err, boom)

	_, err = NewChatModelSummarizer(&replyModel{reply: "   "}, 0).Summarize(context.Background(), makeEntries(1))
	assert.ErrorIs(t, err, errno.ErrSummarizeFailed)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateRunes("héllo", 5))
	assert.Equal(t, "hé...", truncateRunes("héllo", 2))
}
