package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding markdown code fence (``` or ```json) from s.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the language tag line.
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[\"") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeObject parses raw as a JSON object and validates it with ValidateExact.
// Fences around the object are tolerated. A reply that is not a JSON object
// returns an error wrapping ErrMalformed.
func DecodeObject(raw string, contract Schema) (map[string]any, error) {
	body := StripFences(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformed)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: reply is not an object", ErrMalformed)
	}

	if err := ValidateExact(contract, obj); err != nil {
		return nil, err
	}
	return obj, nil
}
