package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolSetRegistry_Load(t *testing.T) {
	c := NewToolSetRegistry()
	c.MustRegister(ToolSet{Name: "alpha", Tools: func() []*Tool {
		return []*Tool{MustNew(Definition{Name: "a1"}, noop), MustNew(Definition{Name: "a2"}, noop)}
	}})
	c.MustRegister(ToolSet{Name: "beta", Tools: func() []*Tool {
		return []*Tool{MustNew(Definition{Name: "b1"}, noop)}
	}})

	r := NewRegistry()
	require.NoError(t, c.Load("alpha", r))
	assert.Equal(t, []string{"a1", "a2"}, r.Names())

	require.NoError(t, c.Load("beta", r))
	assert.Equal(t, []string{"b1"}, r.Names())
	assert.Equal(t, []string{"alpha", "beta"}, c.LoadedSets())
}

func TestToolSetRegistry_LoadUnknown(t *testing.T) {
	c := NewToolSetRegistry()
	r := NewRegistry()
	r.MustRegister(MustNew(Definition{Name: "keep"}, noop))

	err := c.Load("missing", r)
	assert.ErrorIs(t, err, ErrToolSetNotFound)
	assert.True(t, r.Has("keep"))
}

func TestToolSetRegistry_LoadConflictLeavesEmptyRegistry(t *testing.T) {
	c := NewToolSetRegistry()
	c.MustRegister(ToolSet{Name: "dup", Tools: func() []*Tool {
		return []*Tool{MustNew(Definition{Name: "x"}, noop), MustNew(Definition{Name: "x"}, noop)}
	}})

	r := NewRegistry()
	err := c.Load("dup", r)
	assert.ErrorIs(t, err, ErrToolAlreadyRegistered)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, c.LoadedSets())
}

func TestToolSetRegistry_RegisterRules(t *testing.T) {
	c := NewToolSetRegistry()
	assert.ErrorIs(t, c.Register(ToolSet{Name: "nofactory"}), ErrInvalidTool)

	set := ToolSet{Name: "s", Tools: func() []*Tool { return nil }}
	require.NoError(t, c.Register(set))
	assert.ErrorIs(t, c.Register(set), ErrToolSetRegistered)

	got, ok := c.Get("s")
	assert.True(t, ok)
	assert.Equal(t, "s", got.Name)
	assert.Len(t, c.List(), 1)
}
