package oracle

import (
	"fmt"
	"strings"
)

const (
	noGoal        = "No explicit goal provided"
	noToolResults = "No previous tool results"
)

const systemPrompt = `You are the reasoning step of a controlled agent loop.
Each turn you decide whether to call tools, whether to keep going, and what to tell the user when you stop.
You never execute tools yourself: you only propose calls the controller may run.
Answer with a single JSON object and nothing else.`

const outputContract = `Respond with one JSON object with exactly these fields:
{
  "overall_reasoning": string,       // high-level reasoning about the current state and next steps
  "confidence": number,              // 0 to 1
  "should_use_tools": boolean,       // whether tools should be called in this iteration
  "tool_calls": [                    // required when should_use_tools is true
    {"tool_name": string, "arguments": object}
  ],
  "parallel_safe": boolean,
  "should_continue": boolean,        // whether to run another iteration after this one
  "continuation_reasoning": string,
  "final_response": string,          // the answer for the user when should_continue is false
  "suggested_next_action": string
}
Only use tool names listed under Available tools.`

// section is one titled block of the decision prompt.
type section struct {
	title string
	body  func(req *Request) string
}

var promptSections = []section{
	{"User query", func(r *Request) string { return r.UserQuery }},
	{"Goal", func(r *Request) string { return orDefault(r.Goal, noGoal) }},
	{"Conversation history", func(r *Request) string { return r.ConversationHistory }},
	{"Last tool results", func(r *Request) string { return orDefault(r.LastToolResults, noToolResults) }},
	{"Available tools", func(r *Request) string { return r.AvailableTools }},
	{"Iteration", func(r *Request) string {
		return fmt.Sprintf("%d of %d", r.IterationCount, r.MaxIterations)
	}},
}

// BuildPrompt renders req as the user message of a decision call.
func BuildPrompt(req *Request) string {
	var b strings.Builder
	for _, s := range promptSections {
		b.WriteString("## ")
		b.WriteString(s.title)
		b.WriteString("\n")
		b.WriteString(s.body(req))
		b.WriteString("\n\n")
	}
	b.WriteString(outputContract)
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
