package nodekit

import (
	"context"
	"errors"
	"strings"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
)

// Template names a prompt: inline Text wins, otherwise Name is looked up in Library.
type Template struct {
	Library ports.PromptLibrary
	Name    string
	Text    string
}

// Inline is a Template with literal text.
func Inline(text string) Template {
	return Template{Text: text}
}

// Named is a Template resolved from lib by name.
func Named(lib ports.PromptLibrary, name string) Template {
	return Template{Library: lib, Name: name}
}

// Resolve returns the template text.
func (t Template) Resolve(ctx context.Context) (string, error) {
	if t.Text != "" {
		return t.Text, nil
	}
	if t.Library == nil {
		return "", errors.New("no prompt library configured")
	}
	return t.Library.Lookup(ctx, t.Name)
}

// HumanText joins the content of every human trace entry with single spaces.
func HumanText(s *domain.State) string {
	msgs := s.MessagesByRole(domain.RoleHuman)
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, " ")
}

// FieldsWithRequest exposes every field plus "request", the joined human text.
func FieldsWithRequest(s *domain.State) map[string]any {
	values := make(map[string]any, len(s.Fields)+1)
	for k, v := range s.Fields {
		values[k] = v
	}
	values["request"] = HumanText(s)
	return values
}
