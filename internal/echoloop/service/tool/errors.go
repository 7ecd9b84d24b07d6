package tool

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrInvalidTool           = errors.New("invalid tool definition")
	ErrToolAlreadyRegistered = errors.New("tool already registered")
	ErrToolNotFound          = errors.New("tool not found")
	ErrToolSetNotFound       = errors.New("tool set not found")
	ErrToolSetRegistered     = errors.New("tool set already registered")
)

type alreadyRegisteredError struct {
	name string
}

func (e *alreadyRegisteredError) Error() string {
	return fmt.Sprintf("Tool '%s' is already registered.", e.name)
}

func (e *alreadyRegisteredError) Is(target error) bool {
	return target == ErrToolAlreadyRegistered
}

// FieldError is one schema violation at an argument path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports that supplied arguments do not match a tool's schema.
// It distinguishes bad input from a tool that failed while running.
type ValidationError struct {
	Tool   string       `json:"tool"`
	Fields []FieldError `json:"fields"`
}

// Kind is the stable error kind name.
func (e *ValidationError) Kind() string { return "ValidationError" }

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("ValidationError: invalid arguments for tool '%s': %s", e.Tool, strings.Join(parts, "; "))
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func newValidationError(toolName string, err error) *ValidationError {
	ve := &ValidationError{Tool: toolName}
	var sve *jsonschema.ValidationError
	if !errors.As(err, &sve) {
		ve.Fields = []FieldError{{Message: err.Error()}}
		return ve
	}
	collectLeaves(sve, &ve.Fields)
	if len(ve.Fields) == 0 {
		ve.Fields = []FieldError{{Message: sve.Message}}
	}
	sort.SliceStable(ve.Fields, func(i, j int) bool { return ve.Fields[i].Field < ve.Fields[j].Field })
	return ve
}

func collectLeaves(e *jsonschema.ValidationError, out *[]FieldError) {
	if len(e.Causes) == 0 {
		*out = append(*out, FieldError{
			Field:   strings.TrimPrefix(e.InstanceLocation, "/"),
			Message: e.Message,
		})
		return
	}
	for _, c := range e.Causes {
		collectLeaves(c, out)
	}
}
