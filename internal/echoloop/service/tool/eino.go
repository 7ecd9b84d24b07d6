package tool

import (
	"context"
	"fmt"
	"sort"

	einoTool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/echoloop/pkg/utils/json"
)

// ToolInfo describes t in Eino's form so chat models can bind it natively.
func (t *Tool) ToolInfo() *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(t.Parameters))
	for _, p := range t.Parameters {
		info := &schema.ParameterInfo{
			Desc:     p.Description,
			Type:     toSchemaDataType(p.Type),
			Required: p.Required,
		}
		for _, e := range p.Enum {
			info.Enum = append(info.Enum, fmt.Sprint(e))
		}
		params[p.Name] = info
	}

	return &schema.ToolInfo{
		Name:        t.Name,
		Desc:        t.Description,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

// ToolInfos returns Eino descriptions of every tool in r, sorted by name.
func ToolInfos(r *Registry) []*schema.ToolInfo {
	tools := r.List()
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		infos = append(infos, t.ToolInfo())
	}
	return infos
}

// AsEinoTool exposes t as an Eino invokable tool. Arguments arrive as a JSON
// object and are validated like registry calls. String results are returned
// unchanged, anything else is JSON encoded.
func (t *Tool) AsEinoTool() einoTool.InvokableTool {
	return &einoAdapter{tool: t}
}

type einoAdapter struct {
	tool *Tool
}

func (a *einoAdapter) Info(context.Context) (*schema.ToolInfo, error) {
	return a.tool.ToolInfo(), nil
}

func (a *einoAdapter) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einoTool.Option) (string, error) {
	raw := map[string]interface{}{}
	if argumentsInJSON != "" {
		if err := json.UnmarshalFromString(argumentsInJSON, &raw); err != nil {
			return "", fmt.Errorf("tool %q: invalid arguments: %w", a.tool.Name, err)
		}
	}
	var out interface{}
	err := recovered(func() error {
		args, err := a.tool.Prepare(raw)
		if err != nil {
			return err
		}
		out, err = a.tool.handler(ctx, args)
		return err
	})
	if err != nil {
		return "", err
	}
	if s, ok := out.(string); ok {
		return s, nil
	}
	return json.MarshalToString(out)
}

type importedSchema struct {
	Properties map[string]importedProp `json:"properties"`
	Required   []string                `json:"required"`
}

type importedProp struct {
	Type        interface{}   `json:"type"`
	Description string        `json:"description"`
	Enum        []interface{} `json:"enum"`
	Default     interface{}   `json:"default"`
}

// FromEinoTool wraps an Eino invokable tool (for example one discovered over
// MCP) as a registry tool in the given category.
func FromEinoTool(ctx context.Context, bt einoTool.BaseTool, category string) (*Tool, error) {
	invokable, ok := bt.(einoTool.InvokableTool)
	if !ok {
		return nil, fmt.Errorf("%w: eino tool is not invokable", ErrInvalidTool)
	}
	info, err := bt.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read eino tool info: %w", err)
	}

	def := Definition{
		Name:        info.Name,
		Description: info.Desc,
		Category:    category,
	}
	if info.ParamsOneOf != nil {
		params, err := importParams(info.ParamsOneOf)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", info.Name, err)
		}
		def.Parameters = params
	}

	return New(def, func(ctx context.Context, args Args) (interface{}, error) {
		payload, err := json.Marshal(map[string]interface{}(args))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal arguments: %w", err)
		}
		out, err := invokable.InvokableRun(ctx, string(payload))
		if err != nil {
			return nil, err
		}
		var decoded interface{}
		if err := json.UnmarshalFromString(out, &decoded); err == nil {
			return decoded, nil
		}
		return out, nil
	})
}

func importParams(p *schema.ParamsOneOf) ([]ParameterDef, error) {
	js, err := p.ToJSONSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to convert params to json schema: %w", err)
	}
	if js == nil {
		return nil, nil
	}
	raw, err := json.Marshal(js)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params schema: %w", err)
	}
	var doc importedSchema
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode params schema: %w", err)
	}

	required := make(map[string]bool, len(doc.Required))
	for _, name := range doc.Required {
		required[name] = true
	}

	params := make([]ParameterDef, 0, len(doc.Properties))
	for name, prop := range doc.Properties {
		params = append(params, ParameterDef{
			Name:        name,
			Type:        fromJSONType(prop.Type),
			Description: prop.Description,
			Required:    required[name],
			Default:     prop.Default,
			Enum:        prop.Enum,
		})
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	return params, nil
}

func fromJSONType(t interface{}) ParamType {
	name, ok := t.(string)
	if !ok {
		return TypeAny
	}
	switch ParamType(name) {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeObject, TypeArray:
		return ParamType(name)
	default:
		return TypeAny
	}
}

func toSchemaDataType(t ParamType) schema.DataType {
	switch t {
	case TypeString:
		return schema.String
	case TypeInteger:
		return schema.Integer
	case TypeNumber:
		return schema.Number
	case TypeBoolean:
		return schema.Boolean
	case TypeObject:
		return schema.Object
	case TypeArray:
		return schema.Array
	default:
		return schema.String
	}
}
