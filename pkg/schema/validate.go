package schema

// Schema maps field names to their expected types.
// Example: {"spec": String(), "args": Optional(Slice(String()))}
type Schema map[string]Type

// Validate checks data against the schema and reports every failing field
// in one AggregateError. An empty schema accepts anything.
func Validate(schema Schema, data map[string]any) error {
	var errs []error
	for name, ft := range schema {
		if err := checkField(ft, data, name); err != nil {
			errs = append(errs, err)
		}
	}
	return aggregate(errs)
}

// ValidateFields checks only the named fields. A name missing from the
// schema is itself a failure, as is an absent required field.
func ValidateFields(schema Schema, data map[string]any, fields ...string) error {
	var errs []error
	for _, name := range fields {
		ft, ok := schema[name]
		if !ok {
			errs = append(errs, &ValidationError{Key: name, Reason: "not defined in schema"})
			continue
		}
		if err := checkField(ft, data, name); err != nil {
			errs = append(errs, err)
		}
	}
	return aggregate(errs)
}

func checkField(ft Type, data map[string]any, name string) *ValidationError {
	value, ok := data[name]
	if !ok {
		if IsOptional(ft) {
			return nil
		}
		return &ValidationError{Key: name, Reason: "required"}
	}
	if err := ft.Validate(value); err != nil {
		return &ValidationError{Key: name, Reason: err.Error(), Value: value}
	}
	return nil
}

func aggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}
