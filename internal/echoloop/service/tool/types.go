package tool

import (
	"context"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
	// TypeAny leaves the value unconstrained.
	TypeAny ParamType = ""
)

// ParameterDef declares one argument of a tool.
type ParameterDef struct {
	Name        string        `json:"name"`
	Type        ParamType     `json:"type"`
	Description string        `json:"description"`
	Required    bool          `json:"required"`
	Default     interface{}   `json:"default,omitempty"`
	Minimum     *float64      `json:"minimum,omitempty"`
	Maximum     *float64      `json:"maximum,omitempty"`
	MinLength   *int          `json:"min_length,omitempty"`
	MaxLength   *int          `json:"max_length,omitempty"`
	Enum        []interface{} `json:"enum,omitempty"`
	// NotBlank rejects strings made only of whitespace.
	NotBlank bool `json:"not_blank,omitempty"`
	// Format is a JSON Schema format such as "email" or "date".
	Format string `json:"format,omitempty"`
}

// Definition is the declared shape of a tool.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category,omitempty"`
	Parameters  []ParameterDef `json:"parameters"`
}

// Handler executes a tool with validated, defaulted arguments.
type Handler func(ctx context.Context, args Args) (interface{}, error)

// Tool is a named executable unit with a compiled argument schema.
// A Tool is immutable after New returns and may be shared between registries.
type Tool struct {
	Definition
	handler Handler
	schema  *jsonschema.Schema
}

// New compiles def's argument schema and binds it to handler.
func New(def Definition, handler Handler) (*Tool, error) {
	if def.Name == "" {
		return nil, ErrInvalidTool
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: tool %q has no handler", ErrInvalidTool, def.Name)
	}
	compiled, err := compileSchema(def)
	if err != nil {
		return nil, fmt.Errorf("%w: tool %q: %v", ErrInvalidTool, def.Name, err)
	}
	return &Tool{Definition: def, handler: handler, schema: compiled}, nil
}

// MustNew is New that panics, for statically declared tools.
func MustNew(def Definition, handler Handler) *Tool {
	t, err := New(def, handler)
	if err != nil {
		panic(err)
	}
	return t
}

// Param returns the declaration of the named parameter.
func (t *Tool) Param(name string) (ParameterDef, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterDef{}, false
}

// Float64 is a helper for optional numeric constraints.
func Float64(v float64) *float64 { return &v }

// Int is a helper for optional length constraints.
func Int(v int) *int { return &v }
