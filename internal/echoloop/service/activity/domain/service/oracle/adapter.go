package oracle

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/kiosk404/echoloop/pkg/logger"
)

const (
	MaxIterationsResponse = "I've reached the maximum number of iterations. Based on the work completed so far, here's what I found."
	CompletedResponse     = "I've completed the analysis based on the available information."

	noValidToolsReasoning = "No valid tools available for selected actions"
	noToolsReasoning      = "No specific tools identified for execution"
)

// ToolNameSet answers whether a tool name may be proposed.
type ToolNameSet interface {
	Has(name string) bool
}

// NameSet is a fixed ToolNameSet captured from a list of names.
type NameSet map[string]struct{}

// NewNameSet snapshots names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the set's names sorted.
func (s NameSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Adapter calls an Oracle and repairs its decision before anyone trusts it.
type Adapter struct {
	oracle Oracle
	tools  ToolNameSet
}

// NewAdapter binds oracle to the set of tool names it may propose.
// A nil tools set accepts every name.
func NewAdapter(oracle Oracle, tools ToolNameSet) *Adapter {
	return &Adapter{oracle: oracle, tools: tools}
}

// Decide asks the oracle and normalizes the answer. Malformed decisions are
// repaired, never rejected. A failed oracle call is returned as an error
// wrapping errno.ErrOracleFailed.
func (a *Adapter) Decide(ctx context.Context, req *Request) (*Decision, error) {
	if a.oracle == nil {
		return nil, errno.ErrOracleRequired
	}
	d, err := a.oracle.Decide(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errno.ErrOracleFailed, err)
	}
	if d == nil {
		d = &Decision{}
	}
	return Normalize(d, req.IterationCount, req.MaxIterations, a.tools), nil
}

// Normalize returns a repaired copy of d. The steps run in a fixed order:
// iteration cap, unknown tool removal, tool flag consistency, fallback final
// response and confidence clamping.
func Normalize(d *Decision, iteration, maxIterations int, tools ToolNameSet) *Decision {
	out := d.clone()

	if iteration >= maxIterations {
		out.ShouldContinue = false
		out.ContinuationReasoning = fmt.Sprintf("Maximum iterations (%d) reached", maxIterations)
		if out.FinalResponse == "" {
			out.FinalResponse = MaxIterationsResponse
		}
	}

	if out.ShouldUseTools && len(out.ToolCalls) > 0 && tools != nil {
		valid := make([]entity.ToolCall, 0, len(out.ToolCalls))
		for _, c := range out.ToolCalls {
			if tools.Has(c.ToolName) {
				valid = append(valid, c)
				continue
			}
			logger.WarnX(pkg.ModuleName, "[OracleAdapter] dropping call to unregistered tool %q", c.ToolName)
		}
		out.ToolCalls = valid
		if len(valid) == 0 {
			out.ShouldUseTools = false
			out.ContinuationReasoning = noValidToolsReasoning
		}
	}

	if out.ShouldUseTools && len(out.ToolCalls) == 0 {
		out.ShouldUseTools = false
		out.ContinuationReasoning = noToolsReasoning
	}

	if !out.ShouldContinue && out.FinalResponse == "" {
		out.FinalResponse = CompletedResponse
	}

	switch {
	case math.IsNaN(out.Confidence), out.Confidence < 0:
		out.Confidence = 0
	case out.Confidence > 1:
		out.Confidence = 1
	}
	return out
}
