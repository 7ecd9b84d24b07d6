package oracle

import (
	"context"
	"sync"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
)

// Scripted replays a fixed list of decisions, one per call. Once the script
// is exhausted the last decision repeats. It is deterministic and meant for
// tests and offline demos.
type Scripted struct {
	mu       sync.Mutex
	script   []*Decision
	next     int
	requests []*Request
}

// NewScripted creates a Scripted oracle. An empty script always finishes.
func NewScripted(decisions ...*Decision) *Scripted {
	return &Scripted{script: decisions}
}

func (s *Scripted) Decide(_ context.Context, req *Request) (*Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *req
	s.requests = append(s.requests, &cp)

	if len(s.script) == 0 {
		return &Decision{OverallReasoning: "No scripted decisions", ShouldContinue: false}, nil
	}
	idx := s.next
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	} else {
		s.next++
	}
	return s.script[idx].clone(), nil
}

// Requests returns copies of every request seen so far.
func (s *Scripted) Requests() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// DemoScript is a canned treasure hunt used by the scripted oracle mode.
func DemoScript() []*Decision {
	return []*Decision{
		{
			OverallReasoning: "Start by asking for the first hint.",
			Confidence:       0.8,
			ShouldUseTools:   true,
			ToolCalls:        []entity.ToolCall{{ToolName: "give_hint", Arguments: map[string]interface{}{"hint_total": 0}}},
			ShouldContinue:   true,
		},
		{
			OverallReasoning: "Coffee and rain point to Seattle. Ask for another hint.",
			Confidence:       0.8,
			ShouldUseTools:   true,
			ToolCalls:        []entity.ToolCall{{ToolName: "give_hint", Arguments: map[string]interface{}{"hint_total": 1}}},
			ShouldContinue:   true,
		},
		{
			OverallReasoning: "Near Pike Place Market on a street named after a president's wife: Lenora Street.",
			Confidence:       0.9,
			ShouldUseTools:   true,
			ToolCalls: []entity.ToolCall{{ToolName: "guess_location", Arguments: map[string]interface{}{
				"address": "Lenora St", "city": "Seattle", "state": "WA",
			}}},
			ShouldContinue: true,
		},
		{
			OverallReasoning: "The guess was confirmed.",
			Confidence:       1,
			ShouldContinue:   false,
			FinalResponse:    "The treasure is on Lenora Street in Seattle, WA, near Pike Place Market.",
		},
	}
}
