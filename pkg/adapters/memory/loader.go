package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/meshed/agentgraph/pkg/prompt"
)

// Prompts implements ports.PromptLibrary using an in-memory map.
// Lookup is exact; use prompt.Sections for the fuzzy markdown behavior.
type Prompts struct {
	templates map[string]string
}

// NewPrompts creates a library from name → template pairs.
func NewPrompts(templates map[string]string) *Prompts {
	data := make(map[string]string, len(templates))
	for k, v := range templates {
		data[k] = v
	}
	return &Prompts{templates: data}
}

// Lookup returns the template registered under name.
func (p *Prompts) Lookup(ctx context.Context, name string) (string, error) {
	tpl, ok := p.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", prompt.ErrPromptNotFound, name)
	}
	return tpl, nil
}

// Names returns all template names.
func (p *Prompts) Names(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(p.templates))
	for k := range p.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
