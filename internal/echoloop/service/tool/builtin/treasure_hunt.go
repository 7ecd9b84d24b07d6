package builtin

import (
	"context"
	"strings"

	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
)

const TreasureHunt = "treasure_hunt"

var treasureHints = []string{
	"The treasure is in a city known for its coffee and rain.",
	"It's located near a famous public market.",
	"The address is on a street named after a US President's wife.",
}

// TreasureHuntToolSet is a small guessing game with progressive hints.
func TreasureHuntToolSet() tool.ToolSet {
	return tool.ToolSet{
		Name:        TreasureHunt,
		Description: "Treasure hunting game with progressive hints and location guessing",
		Tools: func() []*tool.Tool {
			return []*tool.Tool{giveHintTool(), guessLocationTool()}
		},
	}
}

func giveHintTool() *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "give_hint",
		Description: "Give a progressive hint about the treasure location.",
		Category:    TreasureHunt,
		Parameters: []tool.ParameterDef{
			{
				Name:        "hint_total",
				Type:        tool.TypeInteger,
				Description: "The total number of hints already given. Used to determine which hint to provide next.",
				Default:     0,
				Minimum:     tool.Float64(0),
			},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		n := args.Int("hint_total")
		if n < len(treasureHints) {
			return map[string]interface{}{"hint": treasureHints[n]}, nil
		}
		return map[string]interface{}{"hint": "No more hints available."}, nil
	})
}

func guessLocationTool() *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "guess_location",
		Description: "Guess the location of the treasure by address, city and state.",
		Category:    TreasureHunt,
		Parameters: []tool.ParameterDef{
			{Name: "address", Type: tool.TypeString, Description: "The street address component of the guess", Default: ""},
			{Name: "city", Type: tool.TypeString, Description: "The city component of the guess", Default: ""},
			{Name: "state", Type: tool.TypeString, Description: "The state component of the guess", Default: ""},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		city := strings.ToLower(args.String("city"))
		address := strings.ToLower(args.String("address"))
		if strings.Contains(city, "seattle") && strings.Contains(address, "lenora") {
			return map[string]interface{}{
				"status":  "Correct!",
				"message": "You found the treasure!",
			}, nil
		}
		return map[string]interface{}{
			"status":  "Incorrect",
			"message": "Sorry, that's not the right location.",
		}, nil
	})
}
