package process

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ToolSpec declares one allow-listed command exposed as a tool capability.
type ToolSpec struct {
	Name        string            `yaml:"name"`
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args"`
	Environment map[string]string `yaml:"env"`
	Description string            `yaml:"description"`

	// Parameters is an optional JSON schema advertised through ListCapabilities.
	Parameters map[string]any `yaml:"parameters"`

	// Timeout bounds a single execution. Zero relies on the call deadline.
	Timeout time.Duration `yaml:"timeout"`
}

type toolsFile struct {
	Tools []ToolSpec `yaml:"tools"`
}

// LoadTools reads a tools file and indexes its entries by name.
//
// The file is decoded as YAML, which also accepts JSON documents. Entries
// without a name are skipped; a repeated name or a missing command is an error.
// Environment values are expanded against the current process environment.
func LoadTools(path string) (map[string]ToolSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tools file: %w", err)
	}

	var doc toolsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode tools file %s: %w", path, err)
	}

	tools := make(map[string]ToolSpec, len(doc.Tools))
	for i, spec := range doc.Tools {
		if spec.Name == "" {
			continue
		}
		if _, dup := tools[spec.Name]; dup {
			return nil, fmt.Errorf("tool %q declared twice (entry %d)", spec.Name, i)
		}
		if spec.Command == "" {
			return nil, fmt.Errorf("tool %q: command is required", spec.Name)
		}
		if len(spec.Environment) > 0 {
			env := make(map[string]string, len(spec.Environment))
			for k, v := range spec.Environment {
				env[k] = os.ExpandEnv(v)
			}
			spec.Environment = env
		}
		tools[spec.Name] = spec
	}
	return tools, nil
}
