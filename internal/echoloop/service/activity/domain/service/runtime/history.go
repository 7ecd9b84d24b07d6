package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg"
	"github.com/kiosk404/echoloop/pkg/logger"
)

const (
	DefaultMaxHistoryLength       = 10
	DefaultAutoSummarizeThreshold = 20
)

// ConversationManager bounds the conversation history of an activity.
//
// Up to MaxHistoryLength entries are kept as is. Above that and up to
// AutoSummarizeThreshold the oldest entries are dropped. Above the threshold
// everything but the most recent MaxHistoryLength entries is folded into one
// summary entry, or dropped when summarization is unavailable or fails.
type ConversationManager struct {
	MaxHistoryLength       int
	AutoSummarizeThreshold int
	Summarizer             Summarizer
}

// NewConversationManager applies defaults to non-positive limits.
func NewConversationManager(maxHistoryLength, autoSummarizeThreshold int, s Summarizer) *ConversationManager {
	if maxHistoryLength <= 0 {
		maxHistoryLength = DefaultMaxHistoryLength
	}
	if autoSummarizeThreshold <= 0 {
		autoSummarizeThreshold = DefaultAutoSummarizeThreshold
	}
	return &ConversationManager{
		MaxHistoryLength:       maxHistoryLength,
		AutoSummarizeThreshold: autoSummarizeThreshold,
		Summarizer:             s,
	}
}

// Append adds entry and applies the retention policy.
func (m *ConversationManager) Append(ctx context.Context, entries []entity.ConversationEntry, entry entity.ConversationEntry) []entity.ConversationEntry {
	updated := make([]entity.ConversationEntry, 0, len(entries)+1)
	updated = append(updated, entries...)
	updated = append(updated, entry)
	return m.Manage(ctx, updated)
}

// Manage applies the retention policy to entries. The input slice is not modified.
func (m *ConversationManager) Manage(ctx context.Context, entries []entity.ConversationEntry) []entity.ConversationEntry {
	n := len(entries)
	switch {
	case n <= m.MaxHistoryLength:
		return entries
	case n <= m.AutoSummarizeThreshold:
		return m.truncate(entries)
	default:
		return m.compress(ctx, entries)
	}
}

func (m *ConversationManager) truncate(entries []entity.ConversationEntry) []entity.ConversationEntry {
	recent := entries[len(entries)-m.MaxHistoryLength:]
	out := make([]entity.ConversationEntry, len(recent))
	copy(out, recent)
	return out
}

func (m *ConversationManager) compress(ctx context.Context, entries []entity.ConversationEntry) []entity.ConversationEntry {
	if m.Summarizer == nil {
		return m.truncate(entries)
	}
	split := len(entries) - m.MaxHistoryLength
	older, recent := entries[:split], entries[split:]

	summary, err := m.Summarizer.Summarize(ctx, older)
	if err != nil {
		logger.WarnX(pkg.ModuleName, "[History] summarizing %d entries failed, truncating instead: %v", len(older), err)
		return m.truncate(entries)
	}

	out := make([]entity.ConversationEntry, 0, len(recent)+1)
	out = append(out, entity.ConversationEntry{
		Iteration:     0,
		UserInput:     entity.CompressedHistoryInput,
		Response:      fmt.Sprintf("Summary: %s\nContext: %s", summary.Summary, summary.Context),
		ToolCallsMade: []entity.ToolCall{},
		ToolResults:   []entity.ToolExecutionResult{},
		Timestamp:     time.Now(),
	})
	out = append(out, recent...)
	logger.DebugX(pkg.ModuleName, "[History] compressed %d entries into a summary, kept %d", len(older), len(recent))
	return out
}
