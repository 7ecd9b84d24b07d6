package runtime

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/pkg/utils/json"
	"github.com/mitchellh/go-wordwrap"
)

const (
	noHistoryForLLM   = "No conversation history available"
	noHistoryForHuman = "No conversation history available."

	humanWrapWidth = 100
	humanIndent    = "    "
)

// FormatForLLM renders entries as compact text for the oracle.
func FormatForLLM(entries []entity.ConversationEntry) string {
	if len(entries) == 0 {
		return noHistoryForLLM
	}
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		tools := "No tools used"
		if names := callNames(e.ToolCallsMade); len(names) > 0 {
			tools = "Tools used: " + strings.Join(names, ", ")
		}
		blocks = append(blocks, fmt.Sprintf("Iteration %d:\nUser: %s\nAgent: %s\n%s\n",
			e.Iteration, e.UserInput, e.Response, tools))
	}
	return strings.Join(blocks, "\n")
}

// FormatForHuman renders entries with timestamps and tool outcomes for people.
func FormatForHuman(entries []entity.ConversationEntry) string {
	if len(entries) == 0 {
		return noHistoryForHuman
	}
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		var b strings.Builder
		fmt.Fprintf(&b, "[%s] Iteration %d:\n", e.Timestamp.Format("15:04:05"), e.Iteration)
		b.WriteString(wrapLabeled("User", e.UserInput))
		b.WriteString(wrapLabeled("Agent", e.Response))
		if names := callNames(e.ToolCallsMade); len(names) > 0 {
			fmt.Fprintf(&b, "  Tools used: %s\n", strings.Join(names, ", "))
			var ok, failed []string
			for _, r := range e.ToolResults {
				if r.Success {
					ok = append(ok, r.ToolName)
				} else {
					failed = append(failed, r.ToolName)
				}
			}
			if len(ok) > 0 {
				fmt.Fprintf(&b, "  ✓ Successful tools: %s\n", strings.Join(ok, ", "))
			}
			if len(failed) > 0 {
				fmt.Fprintf(&b, "  ✗ Failed tools: %s\n", strings.Join(failed, ", "))
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

func wrapLabeled(label, text string) string {
	wrapped := wordwrap.WrapString(text, humanWrapWidth)
	lines := strings.Split(wrapped, "\n")
	var b strings.Builder
	fmt.Fprintf(&b, "  %s: %s\n", label, lines[0])
	for _, l := range lines[1:] {
		b.WriteString(humanIndent)
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatToolResults renders the results of the last iteration for the oracle,
// one line per call. It returns "" when there are none.
func FormatToolResults(results []entity.ToolExecutionResult) string {
	if len(results) == 0 {
		return ""
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		if r.Success {
			lines = append(lines, fmt.Sprintf("Tool '%s' succeeded: %s", r.ToolName, renderValue(r.Result)))
			continue
		}
		lines = append(lines, fmt.Sprintf("Tool '%s' failed: %s", r.ToolName, r.Error))
	}
	return strings.Join(lines, "\n")
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	}
	s, err := json.MarshalToString(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return s
}

func callNames(calls []entity.ToolCall) []string {
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.ToolName)
	}
	return names
}

// ToolUsage is how often one tool was called.
type ToolUsage struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// HistoryStats aggregates a conversation history.
type HistoryStats struct {
	TotalIterations       int         `json:"total_iterations"`
	TotalToolsUsed        int         `json:"total_tools_used"`
	SuccessRate           float64     `json:"success_rate"`
	MostUsedTools         []ToolUsage `json:"most_used_tools"`
	AverageResponseLength float64     `json:"average_response_length"`
}

// Stats computes HistoryStats. MostUsedTools holds at most three tools,
// by descending count and then name.
func Stats(entries []entity.ConversationEntry) HistoryStats {
	stats := HistoryStats{MostUsedTools: []ToolUsage{}}
	if len(entries) == 0 {
		return stats
	}

	usage := map[string]int{}
	executions, successes, responseChars := 0, 0, 0
	for _, e := range entries {
		stats.TotalToolsUsed += len(e.ToolCallsMade)
		for _, c := range e.ToolCallsMade {
			usage[c.ToolName]++
		}
		for _, r := range e.ToolResults {
			executions++
			if r.Success {
				successes++
			}
		}
		responseChars += len([]rune(e.Response))
	}

	stats.TotalIterations = len(entries)
	if executions > 0 {
		stats.SuccessRate = float64(successes) / float64(executions)
	}
	stats.AverageResponseLength = float64(responseChars) / float64(len(entries))

	for name, count := range usage {
		stats.MostUsedTools = append(stats.MostUsedTools, ToolUsage{Name: name, Count: count})
	}
	sort.Slice(stats.MostUsedTools, func(i, j int) bool {
		a, b := stats.MostUsedTools[i], stats.MostUsedTools[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(stats.MostUsedTools) > 3 {
		stats.MostUsedTools = stats.MostUsedTools[:3]
	}
	return stats
}
