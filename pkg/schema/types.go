package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Type defines the contract for field validation.
type Type interface {
	// Name returns the type string (e.g. "string", "[int]").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type basicType struct {
	name  string
	check func(any) error
}

func (t *basicType) Name() string             { return t.name }
func (t *basicType) Validate(value any) error { return t.check(value) }

// SliceType validates slices of a specific element type.
type SliceType struct {
	elem Type
}

func (t *SliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// String accepts any string, including the empty one.
func String() Type {
	return &basicType{name: "string", check: func(v any) error {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		return nil
	}}
}

// NonEmptyString accepts strings with at least one non-space character.
func NonEmptyString() Type {
	return &basicType{name: "string!", check: func(v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("expected non-empty string")
		}
		return nil
	}}
}

// Int accepts integers, and floats without a fractional part (JSON numbers).
func Int() Type {
	return &basicType{name: "int", check: func(v any) error {
		switch n := v.(type) {
		case int, int8, int16, int32, int64:
			return nil
		case float64:
			if n == float64(int64(n)) {
				return nil
			}
			return fmt.Errorf("expected int, got float (not a whole number)")
		}
		return fmt.Errorf("expected int, got %T", v)
	}}
}

// Float accepts any numeric value.
func Float() Type {
	return &basicType{name: "float", check: func(v any) error {
		switch v.(type) {
		case float32, float64, int, int8, int16, int32, int64:
			return nil
		}
		return fmt.Errorf("expected float, got %T", v)
	}}
}

// Bool accepts booleans.
func Bool() Type {
	return &basicType{name: "bool", check: func(v any) error {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		return nil
	}}
}

// Any accepts every non-nil value.
func Any() Type {
	return &basicType{name: "any", check: func(v any) error {
		if v == nil {
			return fmt.Errorf("expected a value, got null")
		}
		return nil
	}}
}

// Slice creates a slice type validator for elements of the given type.
func Slice(elem Type) Type {
	return &SliceType{elem: elem}
}

// Custom creates a type with a user-defined validation function.
func Custom(name string, validate func(any) error) Type {
	return &basicType{name: name, check: validate}
}

// ParseType converts a type string to a Type.
// Supported: "string", "string!", "int", "float", "bool", "any" and "[T]" slices.
func ParseType(typeStr string) (Type, error) {
	if len(typeStr) > 2 && strings.HasPrefix(typeStr, "[") && strings.HasSuffix(typeStr, "]") {
		elem, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "string!":
		return NonEmptyString(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "any":
		return Any(), nil
	}
	return nil, fmt.Errorf("unsupported type: %s", typeStr)
}

// ParseTypeMap converts a map of keys to type strings into a Schema.
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
