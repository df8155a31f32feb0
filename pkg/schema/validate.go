package schema

import (
	"slices"
	"sort"
)

// Schema is a map of field names to their expected types.
type Schema map[string]Type

// Keys returns the schema keys in lexical order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks that every schema key is present in data with the right type.
// Keys in data that the schema does not name are ignored.
func Validate(schema Schema, data map[string]any) error {
	return validate(schema, data, false)
}

// ValidateExact is Validate plus rejection of keys absent from the schema.
func ValidateExact(schema Schema, data map[string]any) error {
	return validate(schema, data, true)
}

func validate(schema Schema, data map[string]any, exact bool) error {
	if len(schema) == 0 && !exact {
		return nil
	}

	var errs []error

	// Sorted so that error messages are stable across runs.
	for _, key := range schema.Keys() {
		value, exists := data[key]
		if !exists {
			errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			continue
		}
		if err := schema[key].Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if exact {
		var extra []string
		for key := range data {
			if _, ok := schema[key]; !ok {
				extra = append(extra, key)
			}
		}
		slices.Sort(extra)
		for _, key := range extra {
			errs = append(errs, &ValidationError{Key: key, Reason: "unexpected"})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
