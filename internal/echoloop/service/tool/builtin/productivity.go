package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
)

const Productivity = "productivity"

// ProductivityToolSet holds personal productivity tools.
func ProductivityToolSet() tool.ToolSet {
	return tool.ToolSet{
		Name:        Productivity,
		Description: "Personal productivity tools such as reminders",
		Tools: func() []*tool.Tool {
			return []*tool.Tool{setReminderTool(time.Now)}
		},
	}
}

func setReminderTool(now func() time.Time) *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "set_reminder",
		Description: "Set a reminder with a message at a specific time.",
		Category:    Productivity,
		Parameters: []tool.ParameterDef{
			{
				Name:        "message",
				Type:        tool.TypeString,
				Description: "The reminder message",
				Required:    true,
				MinLength:   tool.Int(1),
				MaxLength:   tool.Int(500),
			},
			{
				Name:        "time",
				Type:        tool.TypeString,
				Description: "When to trigger the reminder, e.g. '3pm tomorrow'",
				Required:    true,
				NotBlank:    true,
			},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		message := args.String("message")
		at := args.String("time")
		return map[string]interface{}{
			"status":      "success",
			"message":     fmt.Sprintf("Reminder set: '%s' at %s", message, at),
			"reminder_id": fmt.Sprintf("rem_%d", now().Unix()),
		}, nil
	})
}
