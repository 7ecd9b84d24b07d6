// Package builtin provides the in-tree tool sets.
package builtin

import (
	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
)

// NewInTreeCatalog returns a catalog holding every built-in tool set.
func NewInTreeCatalog() *tool.ToolSetRegistry {
	c := tool.NewToolSetRegistry()
	RegisterAll(c)
	return c
}

// RegisterAll adds the built-in tool sets to c.
func RegisterAll(c *tool.ToolSetRegistry) {
	c.MustRegister(TreasureHuntToolSet())
	c.MustRegister(ProductivityToolSet())
	c.MustRegister(EcommerceToolSet())
	c.MustRegister(EventsToolSet())
}
