package tool

import (
	"fmt"
	"math"
)

// Args is the validated argument map handed to a Handler.
type Args map[string]interface{}

// Has reports whether name was supplied or defaulted to a non-nil value.
func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// String returns the string value of name, or "" when absent.
func (a Args) String(name string) string {
	switch v := a[name].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Int returns the integer value of name, or 0 when absent.
func (a Args) Int(name string) int {
	switch v := a[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Float returns the numeric value of name and whether it was present.
func (a Args) Float(name string) (float64, bool) {
	switch v := a[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Bool returns the boolean value of name, or false when absent.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// coerceIntegers turns integral float64 values of integer parameters into int.
func coerceIntegers(t *Tool, args Args) {
	for _, p := range t.Parameters {
		if p.Type != TypeInteger {
			continue
		}
		if f, ok := args[p.Name].(float64); ok && f == math.Trunc(f) {
			args[p.Name] = int(f)
		}
	}
}
