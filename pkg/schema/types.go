package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Type checks one field value against a named shape.
type Type interface {
	// Name returns the type string, e.g. "string", "[int]", "{string}?".
	Name() string
	// Validate checks whether value conforms.
	Validate(value any) error
}

// fieldType backs every non-optional type: a name plus a check function.
type fieldType struct {
	name  string
	check func(any) error
}

func (t fieldType) Name() string             { return t.name }
func (t fieldType) Validate(value any) error { return t.check(value) }

// optionalType wraps another type, tolerating an absent field. A present
// value still validates against the wrapped type.
type optionalType struct {
	Type
}

func (t optionalType) Name() string { return t.Type.Name() + "?" }

func (t optionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.Type.Validate(value)
}

// String matches string values.
func String() Type {
	return fieldType{"string", func(v any) error {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		return nil
	}}
}

// Int matches integer values. JSON decodes numbers to float64, so whole
// floats pass too.
func Int() Type {
	return fieldType{"int", func(v any) error {
		switch n := v.(type) {
		case int, int8, int16, int32, int64:
			return nil
		case float64:
			if n == float64(int64(n)) {
				return nil
			}
			return fmt.Errorf("expected int, got float (not a whole number)")
		default:
			return fmt.Errorf("expected int, got %T", v)
		}
	}}
}

// Float matches floating-point values; integers pass as well.
func Float() Type {
	return fieldType{"float", func(v any) error {
		switch v.(type) {
		case float32, float64, int, int8, int16, int32, int64:
			return nil
		default:
			return fmt.Errorf("expected float, got %T", v)
		}
	}}
}

// Bool matches boolean values.
func Bool() Type {
	return fieldType{"bool", func(v any) error {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		return nil
	}}
}

// Slice matches slices or arrays whose elements all conform to elem.
func Slice(elem Type) Type {
	return fieldType{fmt.Sprintf("[%s]", elem.Name()), func(v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return fmt.Errorf("expected slice, got %T", v)
		}
		for i := 0; i < rv.Len(); i++ {
			if err := elem.Validate(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	}}
}

// Map matches string-keyed maps whose values all conform to value.
func Map(value Type) Type {
	return fieldType{fmt.Sprintf("{%s}", value.Name()), func(v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map {
			return fmt.Errorf("expected map, got %T", v)
		}
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("expected string keys, got %s", rv.Type().Key())
		}
		iter := rv.MapRange()
		for iter.Next() {
			if err := value.Validate(iter.Value().Interface()); err != nil {
				return fmt.Errorf("key %q: %w", iter.Key().String(), err)
			}
		}
		return nil
	}}
}

// Optional marks a field as skippable when absent.
func Optional(inner Type) Type {
	return optionalType{inner}
}

// Custom builds a type from a user-defined check.
func Custom(name string, validate func(any) error) Type {
	return fieldType{name, validate}
}

// IsOptional reports whether the type tolerates an absent field.
func IsOptional(t Type) bool {
	_, ok := t.(optionalType)
	return ok
}

// ParseType converts a type string into a Type: the built-in names
// ("string", "int", "float", "bool"), "[elem]" for slices, "{value}" for
// string-keyed maps, and a trailing "?" for optional fields. Forms nest:
// "[{string}]?" is an optional slice of string maps.
func ParseType(spec string) (Type, error) {
	if len(spec) > 1 && strings.HasSuffix(spec, "?") {
		inner, err := ParseType(strings.TrimSuffix(spec, "?"))
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}

	if inner, ok := bracketed(spec, '[', ']'); ok {
		elem, err := ParseType(inner)
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}
	if inner, ok := bracketed(spec, '{', '}'); ok {
		value, err := ParseType(inner)
		if err != nil {
			return nil, err
		}
		return Map(value), nil
	}

	switch spec {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	}
	return nil, fmt.Errorf("unsupported type: %s", spec)
}

func bracketed(s string, open, shut byte) (string, bool) {
	if len(s) > 2 && s[0] == open && s[len(s)-1] == shut {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// ParseTypeMap converts field-name to type-string pairs into a Schema,
// e.g. {"spec": "string", "args": "[string]?"}.
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, spec := range typeMap {
		t, err := ParseType(spec)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
