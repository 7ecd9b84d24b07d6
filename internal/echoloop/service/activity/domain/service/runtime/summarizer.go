package runtime

import (
	"context"
	"fmt"
	"strings"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/kiosk404/echoloop/pkg/logger"
	"github.com/kiosk404/echoloop/pkg/utils/json"
)

// Summary is the compressed form of older history.
type Summary struct {
	Summary string `json:"summary"`
	Context string `json:"context"`
}

// Summarizer folds a run of history entries into one Summary.
type Summarizer interface {
	Summarize(ctx context.Context, entries []entity.ConversationEntry) (*Summary, error)
}

// HeuristicSummarizer builds a summary from tool usage and the latest
// responses without calling a model.
type HeuristicSummarizer struct {
	// KeepResponses is how many trailing responses go into the context.
	KeepResponses int
}

func (h HeuristicSummarizer) Summarize(_ context.Context, entries []entity.ConversationEntry) (*Summary, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: nothing to summarize", errno.ErrSummarizeFailed)
	}
	keep := h.KeepResponses
	if keep <= 0 {
		keep = 2
	}

	stats := Stats(entries)
	first, last := entries[0].Iteration, entries[len(entries)-1].Iteration
	summary := fmt.Sprintf("%d earlier iterations (%d to %d) made %d tool calls", len(entries), first, last, stats.TotalToolsUsed)
	if len(stats.MostUsedTools) > 0 {
		parts := make([]string, 0, len(stats.MostUsedTools))
		for _, u := range stats.MostUsedTools {
			parts = append(parts, fmt.Sprintf("%s x%d", u.Name, u.Count))
		}
		summary += fmt.Sprintf(", mostly %s", strings.Join(parts, ", "))
	}
	if stats.TotalToolsUsed > 0 {
		summary += fmt.Sprintf(", success rate %.0f%%", stats.SuccessRate*100)
	}
	summary += "."

	if keep > len(entries) {
		keep = len(entries)
	}
	responses := make([]string, 0, keep)
	for _, e := range entries[len(entries)-keep:] {
		responses = append(responses, truncateRunes(e.Response, 300))
	}
	return &Summary{Summary: summary, Context: strings.Join(responses, " | ")}, nil
}

// ChatModelSummarizer asks an Eino chat model to compress history.
type ChatModelSummarizer struct {
	model     einoModel.BaseChatModel
	maxTokens int
}

// NewChatModelSummarizer creates a summarizer on m. maxTokens bounds the
// requested summary length and defaults to 500.
func NewChatModelSummarizer(m einoModel.BaseChatModel, maxTokens int) *ChatModelSummarizer {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &ChatModelSummarizer{model: m, maxTokens: maxTokens}
}

func (s *ChatModelSummarizer) Summarize(ctx context.Context, entries []entity.ConversationEntry) (*Summary, error) {
	if s.model == nil {
		return nil, fmt.Errorf("%w: chat model is not configured", errno.ErrSummarizeFailed)
	}

	var prompt strings.Builder
	prompt.WriteString("Summarize the following agent iterations concisely, preserving:\n")
	prompt.WriteString("- Key decisions and conclusions\n")
	prompt.WriteString("- Important facts and data points\n")
	prompt.WriteString("- Tool call results that are still relevant\n")
	prompt.WriteString("- User preferences and requirements expressed\n\n")
	prompt.WriteString(fmt.Sprintf("Keep the summary under %d tokens. Write in the same language as the conversation.\n", s.maxTokens))
	prompt.WriteString(`Answer with a JSON object {"summary": string, "context": string} where context lists what must be remembered to continue.`)
	prompt.WriteString("\n\nIterations to summarize:\n\n")
	prompt.WriteString(truncateRunes(FormatForLLM(entries), 8000))

	resp, err := s.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage("You are a precise conversation summarizer. Output only the JSON object, no preamble."),
		schema.UserMessage(prompt.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errno.ErrSummarizeFailed, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("%w: empty summary", errno.ErrSummarizeFailed)
	}

	content := strings.TrimSpace(resp.Content)
	var out Summary
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		if err := json.UnmarshalFromString(content[start:end+1], &out); err == nil && out.Summary != "" {
			return &out, nil
		}
	}
	logger.DebugX(pkg.ModuleName, "[Summarizer] model reply is not JSON, using it verbatim")
	return &Summary{Summary: content}, nil
}

func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
