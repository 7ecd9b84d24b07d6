package builtin

import (
	"context"
	"strings"

	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
)

const Events = "events"

// EventsToolSet creates, finds and cancels events.
func EventsToolSet() tool.ToolSet {
	return tool.ToolSet{
		Name:        Events,
		Description: "Event management tools for creating, finding and cancelling events",
		Tools: func() []*tool.Tool {
			return []*tool.Tool{createEventTool(), findEventsTool(), cancelEventTool()}
		},
	}
}

func createEventTool() *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "create_event",
		Description: "Create a new event",
		Category:    Events,
		Parameters: []tool.ParameterDef{
			{Name: "title", Type: tool.TypeString, Description: "Event title", Required: true},
			{Name: "date", Type: tool.TypeString, Description: "Event date", Required: true},
			{Name: "location", Type: tool.TypeString, Description: "Event location", Required: true},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		return map[string]interface{}{
			"event_id": "EVT123",
			"status":   "created",
			"title":    args.String("title"),
			"date":     args.String("date"),
			"location": args.String("location"),
		}, nil
	})
}

func findEventsTool() *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "find_events",
		Description: "Find events based on location, date, or type",
		Category:    Events,
		Parameters: []tool.ParameterDef{
			{Name: "location", Type: tool.TypeString, Description: "City or venue"},
			{Name: "date", Type: tool.TypeString, Description: "Date or date range"},
			{Name: "event_type", Type: tool.TypeString, Description: "Type of event (concert, sports, etc)"},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		var criteria []string
		if v := args.String("location"); v != "" {
			criteria = append(criteria, "in "+v)
		}
		if v := args.String("date"); v != "" {
			criteria = append(criteria, "on "+v)
		}
		if v := args.String("event_type"); v != "" {
			criteria = append(criteria, "type: "+v)
		}
		criteriaStr := "matching your criteria"
		if len(criteria) > 0 {
			criteriaStr = strings.Join(criteria, " ")
		}
		return map[string]interface{}{
			"events": "Found 5 events " + criteriaStr,
			"count":  5,
			"criteria": map[string]interface{}{
				"location":   args["location"],
				"date":       args["date"],
				"event_type": args["event_type"],
			},
		}, nil
	})
}

func cancelEventTool() *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "cancel_event",
		Description: "Cancel an existing event or reservation",
		Category:    Events,
		Parameters: []tool.ParameterDef{
			{Name: "event_id", Type: tool.TypeString, Description: "Event or reservation ID", Required: true},
			{Name: "reason", Type: tool.TypeString, Description: "Cancellation reason", Default: ""},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		reason := args.String("reason")
		if reason == "" {
			reason = "No reason provided"
		}
		return map[string]interface{}{
			"status":   "cancelled",
			"event_id": args.String("event_id"),
			"reason":   reason,
		}, nil
	})
}
