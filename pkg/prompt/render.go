package prompt

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render replaces every {key} in template with the matching value.
// Unknown placeholders are left untouched. Maps and slices are rendered as JSON.
func Render(template string, values map[string]any) string {
	if len(values) == 0 {
		return template
	}
	pairs := make([]string, 0, len(values)*2)
	for _, k := range sortedKeys(values) {
		pairs = append(pairs, "{"+k+"}", stringify(values[k]))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Placeholders lists the distinct placeholder names of template in order of appearance.
func Placeholders(template string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Missing returns the placeholders of template that values does not provide.
func Missing(template string, values map[string]any) []string {
	var out []string
	for _, name := range Placeholders(template) {
		if _, ok := values[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

func stringify(v any) string {
	switch v.(type) {
	case nil:
		return ""
	case map[string]any, []any, []string, []map[string]any:
		b, err := json.Marshal(v)
		if err == nil {
			return string(b)
		}
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		b, jerr := json.Marshal(v)
		if jerr != nil {
			return ""
		}
		return string(b)
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
