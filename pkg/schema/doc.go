// Package schema provides a type-safe validation system for structured data.
//
// It defines a simple type system with built-in types (string, int, float,
// bool) and support for slices, string-keyed maps, optional fields and custom
// validators. Schemas map field names to types, enabling runtime validation
// of loosely-typed data such as decoded YAML manifests or JSON request
// bodies.
//
// Basic usage:
//
//	entry := schema.Schema{
//	    "spec": schema.String(),
//	    "cwd":  schema.Optional(schema.String()),
//	    "env":  schema.Optional(schema.Map(schema.String())),
//	    "args": schema.Optional(schema.Slice(schema.String())),
//	}
//
//	if err := schema.Validate(entry, data); err != nil {
//	    // Handle validation errors
//	}
//
// Schemas can be created programmatically or parsed from type strings:
//
//	typeMap := map[string]string{
//	    "spec": "string",
//	    "env":  "{string}?",
//	    "args": "[string]?",
//	}
//
//	entry, err := schema.ParseTypeMap(typeMap)
//
// Custom validators can be registered for domain-specific validation:
//
//	decisionType := schema.Custom("decision_type", func(v any) error {
//	    s, ok := v.(string)
//	    if !ok || s == "" {
//	        return fmt.Errorf("expected non-empty string")
//	    }
//	    return nil
//	})
//
// This package is designed to be library-agnostic, with zero external
// dependencies beyond the Go standard library.
package schema
