package tool

import (
	"context"
	"testing"

	einoTool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/pkg/utils/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEinoTool struct {
	info   *schema.ToolInfo
	gotArg string
	reply  string
}

func (f *fakeEinoTool) Info(context.Context) (*schema.ToolInfo, error) { return f.info, nil }

func (f *fakeEinoTool) InvokableRun(_ context.Context, args string, _ ...einoTool.Option) (string, error) {
	f.gotArg = args
	return f.reply, nil
}

func TestToolInfo(t *testing.T) {
	tl := MustNew(Definition{
		Name:        "weather",
		Description: "current weather",
		Parameters: []ParameterDef{
			{Name: "city", Type: TypeString, Description: "city name", Required: true},
			{Name: "unit", Type: TypeString, Enum: []interface{}{"c", "f"}},
		},
	}, noop)

	info := tl.ToolInfo()
	assert.Equal(t, "weather", info.Name)
	assert.Equal(t, "current weather", info.Desc)

	js, err := info.ParamsOneOf.ToJSONSchema()
	require.NoError(t, err)
	raw, err := json.Marshal(js)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"city"`)
	assert.Contains(t, string(raw), `"unit"`)
}

func TestToolInfos_Sorted(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(MustNew(Definition{Name: "zeta"}, noop))
	r.MustRegister(MustNew(Definition{Name: "alpha"}, noop))

	infos := ToolInfos(r)
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "zeta", infos[1].Name)
}

func TestFromEinoTool(t *testing.T) {
	fake := &fakeEinoTool{
		info: &schema.ToolInfo{
			Name: "lookup",
			Desc: "looks things up",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"key": {Type: schema.String, Desc: "the key", Required: true},
			}),
		},
		reply: `{"value":42}`,
	}

	tl, err := FromEinoTool(context.Background(), fake, "mcp")
	require.NoError(t, err)
	assert.Equal(t, "lookup", tl.Name)
	assert.Equal(t, "mcp", tl.Category)

	p, ok := tl.Param("key")
	require.True(t, ok)
	assert.Equal(t, TypeString, p.Type)
	assert.True(t, p.Required)

	r := NewRegistry()
	r.MustRegister(tl)

	res := r.Execute(context.Background(), entity.NewToolCall("lookup", map[string]interface{}{"key": "k1"}))
	require.True(t, res.Success, res.Error)
	assert.JSONEq(t, `{"key":"k1"}`, fake.gotArg)
	assert.Equal(t, map[string]interface{}{"value": float64(42)}, res.Result)

	missing := r.Execute(context.Background(), entity.NewToolCall("lookup", nil))
	assert.Equal(t, entity.ErrorKindValidation, missing.ErrorKind)
}

func TestFromEinoTool_PlainTextResult(t *testing.T) {
	fake := &fakeEinoTool{
		info:  &schema.ToolInfo{Name: "say", Desc: "says"},
		reply: "hello there",
	}
	tl, err := FromEinoTool(context.Background(), fake, "mcp")
	require.NoError(t, err)

	r := NewRegistry()
	r.MustRegister(tl)
	res := r.Execute(context.Background(), entity.NewToolCall("say", nil))
	require.True(t, res.Success)
	assert.Equal(t, "hello there", res.Result)
}

func TestAsEinoTool(t *testing.T) {
	tl := MustNew(Definition{
		Name: "add",
		Parameters: []ParameterDef{
			{Name: "a", Type: TypeInteger, Required: true},
			{Name: "b", Type: TypeInteger, Default: 1},
		},
	}, func(_ context.Context, args Args) (interface{}, error) {
		return map[string]interface{}{"sum": args.Int("a") + args.Int("b")}, nil
	})

	et := tl.AsEinoTool()
	info, err := et.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "add", info.Name)

	out, err := et.InvokableRun(context.Background(), `{"a":2}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sum":3}`, out)

	_, err = et.InvokableRun(context.Background(), `{}`)
	assert.True(t, IsValidationError(err))

	_, err = et.InvokableRun(context.Background(), `not json`)
	assert.Error(t, err)

	// Round trip back into a registry.
	back, err := FromEinoTool(context.Background(), et, "roundtrip")
	require.NoError(t, err)
	r := NewRegistry()
	r.MustRegister(back)
	res := r.Execute(context.Background(), entity.NewToolCall("add", map[string]interface{}{"a": 5, "b": 5}))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, map[string]interface{}{"sum": float64(10)}, res.Result)
}
