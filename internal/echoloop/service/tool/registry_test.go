package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(t *testing.T, name string) *Tool {
	t.Helper()
	tl, err := New(Definition{
		Name:        name,
		Description: "echoes its input",
		Parameters: []ParameterDef{
			{Name: "text", Type: TypeString, Description: "text to echo", Required: true},
			{Name: "times", Type: TypeInteger, Default: 1, Minimum: Float64(1)},
		},
	}, func(_ context.Context, args Args) (interface{}, error) {
		return map[string]interface{}{"text": args.String("text"), "times": args.Int("times")}, nil
	})
	require.NoError(t, err)
	return tl
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool(t, "b_echo")))
	require.NoError(t, r.Register(echoTool(t, "a_echo")))

	assert.True(t, r.Has("a_echo"))
	assert.False(t, r.Has("missing"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"b_echo", "a_echo"}, r.Names())

	listed := r.List()
	require.Len(t, listed, 2)
	assert.Equal(t, "a_echo", listed[0].Name)
	assert.Equal(t, "b_echo", listed[1].Name)
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool(t, "echo")))

	err := r.Register(echoTool(t, "echo"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolAlreadyRegistered))
	assert.Equal(t, "Tool 'echo' is already registered.", err.Error())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RegisterNil(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Register(nil), ErrInvalidTool)
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool(t, "echo"))
	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Names())
	require.NoError(t, r.Register(echoTool(t, "echo")))
}

func TestRegistry_Descriptions(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "[]", r.Descriptions())

	r.MustRegister(echoTool(t, "echo"))
	assert.JSONEq(t, `[{"name":"echo","description":"echoes its input"}]`, r.Descriptions())
}

func TestRegistry_ExecuteSuccess(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool(t, "echo"))

	res := r.Execute(context.Background(), entity.NewToolCall("echo", map[string]interface{}{"text": "hi"}))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "echo", res.ToolName)
	assert.Equal(t, map[string]interface{}{"text": "hi", "times": 1}, res.Result)
	assert.Empty(t, res.Error)
	assert.Equal(t, map[string]interface{}{"text": "hi"}, res.Parameters)
	assert.GreaterOrEqual(t, res.ExecutionTime, 0.0)
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()

	res := r.Execute(context.Background(), entity.NewToolCall("nope", nil))
	assert.False(t, res.Success)
	assert.Equal(t, "Unknown tool: nope", res.Error)
	assert.Equal(t, entity.ErrorKindUnknownTool, res.ErrorKind)
}

func TestRegistry_ExecuteValidationFailure(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool(t, "echo"))

	res := r.Execute(context.Background(), entity.NewToolCall("echo", map[string]interface{}{"times": 0}))
	assert.False(t, res.Success)
	assert.Equal(t, entity.ErrorKindValidation, res.ErrorKind)
	assert.Contains(t, res.Error, "ValidationError")
	assert.Contains(t, res.Error, "text")
}

func TestRegistry_ExecuteHandlerError(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(MustNew(Definition{Name: "boom"}, func(context.Context, Args) (interface{}, error) {
		return nil, errors.New("exploded")
	}))

	res := r.Execute(context.Background(), entity.NewToolCall("boom", nil))
	assert.False(t, res.Success)
	assert.Equal(t, "exploded", res.Error)
	assert.Equal(t, entity.ErrorKindExecution, res.ErrorKind)
}

func TestRegistry_ExecuteRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(MustNew(Definition{Name: "panicky"}, func(context.Context, Args) (interface{}, error) {
		panic("kaboom")
	}))

	res := r.Execute(context.Background(), entity.NewToolCall("panicky", nil))
	assert.False(t, res.Success)
	assert.Equal(t, "kaboom", res.Error)
	assert.Equal(t, entity.ErrorKindExecution, res.ErrorKind)
}

func TestRegistry_RejectsUncompiledTool(t *testing.T) {
	r := NewRegistry()
	err := r.Register(&Tool{Definition: Definition{Name: "raw"}})
	assert.ErrorIs(t, err, ErrInvalidTool)
	assert.False(t, r.Has("raw"))
}

func TestRegistry_ExecuteRecoversPrepareFailure(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool(t, "echo"))
	// A tool whose schema went missing after registration must still yield a result.
	r.tools["broken"] = &Tool{Definition: Definition{Name: "broken"}, handler: func(context.Context, Args) (interface{}, error) {
		return "unreachable", nil
	}}

	var results []entity.ToolExecutionResult
	require.NotPanics(t, func() {
		results = r.ExecuteAll(context.Background(), []entity.ToolCall{
			entity.NewToolCall("broken", nil),
			entity.NewToolCall("echo", map[string]interface{}{"text": "after"}),
		})
	})
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].Error)
	assert.Equal(t, entity.ErrorKindValidation, results[0].ErrorKind)
	assert.True(t, results[1].Success)
}

func TestRegistry_ExecuteAllKeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool(t, "echo"))

	results := r.ExecuteAll(context.Background(), []entity.ToolCall{
		entity.NewToolCall("echo", map[string]interface{}{"text": "one"}),
		entity.NewToolCall("missing", nil),
		entity.NewToolCall("echo", map[string]interface{}{"text": "two"}),
	})
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
	assert.Equal(t, "two", results[2].Result.(map[string]interface{})["text"])
}
