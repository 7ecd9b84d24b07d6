package tool

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/kiosk404/echoloop/pkg/utils/json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaBaseURL = "https://echoloop.local/tools/"

// JSONSchema renders the definition as a draft 2020-12 object schema.
func (d Definition) JSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(d.Parameters))
	required := make([]string, 0)

	for _, p := range d.Parameters {
		prop := map[string]interface{}{}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Type != TypeAny {
			if p.Required {
				prop["type"] = string(p.Type)
			} else {
				prop["type"] = []string{string(p.Type), "null"}
			}
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			prop["maximum"] = *p.Maximum
		}
		if p.MinLength != nil {
			prop["minLength"] = *p.MinLength
		}
		if p.MaxLength != nil {
			prop["maxLength"] = *p.MaxLength
		}
		if len(p.Enum) > 0 {
			enum := append([]interface{}{}, p.Enum...)
			if !p.Required {
				enum = append(enum, nil)
			}
			prop["enum"] = enum
		}
		if p.NotBlank {
			prop["pattern"] = `\S`
		}
		if p.Format != "" {
			prop["format"] = p.Format
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	doc := map[string]interface{}{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func compileSchema(def Definition) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(def.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	schemaURL := schemaBaseURL + url.PathEscape(def.Name) + ".schema.json"
	if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("schema load failed: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("schema compile failed: %w", err)
	}
	return compiled, nil
}

// Prepare applies defaults and validates raw arguments against the schema.
// The returned Args hold JSON-normalized values with integers coerced to int.
func (t *Tool) Prepare(raw map[string]interface{}) (Args, error) {
	merged := make(map[string]interface{}, len(raw)+len(t.Parameters))
	for _, p := range t.Parameters {
		if p.Default != nil {
			merged[p.Name] = p.Default
		}
	}
	for k, v := range raw {
		if v == nil {
			if _, hasDefault := merged[k]; hasDefault {
				continue
			}
		}
		merged[k] = v
	}

	normalized, err := normalize(merged)
	if err != nil {
		return nil, &ValidationError{Tool: t.Name, Fields: []FieldError{{Message: err.Error()}}}
	}
	if err := t.schema.Validate(normalized); err != nil {
		return nil, newValidationError(t.Name, err)
	}

	args := Args(normalized)
	coerceIntegers(t, args)
	return args, nil
}

// normalize round-trips v through JSON so the validator only sees JSON types.
func normalize(v map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("arguments are not JSON encodable: %w", err)
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("arguments are not JSON decodable: %w", err)
	}
	return out, nil
}
