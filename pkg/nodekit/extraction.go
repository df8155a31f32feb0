package nodekit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
	"github.com/meshed/agentgraph/pkg/prompt"
)

// Fallback derives a value deterministically when the model cannot.
type Fallback struct {
	// Name is recorded in the trace so the degradation is visible.
	Name    string
	Extract func(s *domain.State) (string, bool)
}

// LastToken takes the last whitespace-separated token of the human messages.
func LastToken() Fallback {
	return Fallback{
		Name: "last-token",
		Extract: func(s *domain.State) (string, bool) {
			tokens := strings.Fields(HumanText(s))
			if len(tokens) == 0 {
				return "", false
			}
			return CleanValue(tokens[len(tokens)-1]), true
		},
	}
}

// FromField copies the value of another field.
func FromField(key string) Fallback {
	return Fallback{
		Name: "field " + key,
		Extract: func(s *domain.State) (string, bool) {
			v, ok := s.GetString(key)
			return v, ok && v != ""
		},
	}
}

// CleanValue trims whitespace, backticks and surrounding quotes from a model answer.
func CleanValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return s
}

// Extraction derives one field from unstructured state with a model call.
//
// When the call fails or the answer is empty, the declared Fallback runs. Without
// a fallback, or when it finds nothing, the node sets a model-error fault.
type Extraction struct {
	Model    ports.ModelAdapter
	Prompt   Template
	Target   string
	Deadline time.Duration
	Retry    RetryConfig

	// Inputs builds the template values. Defaults to FieldsWithRequest.
	Inputs   func(s *domain.State) map[string]any
	Fallback *Fallback
}

// Execute implements domain.Node.
func (x *Extraction) Execute(ctx context.Context, s *domain.State) *domain.State {
	cause := x.ask(ctx, &s)
	if cause == nil {
		return s
	}

	if x.Fallback != nil && x.Fallback.Extract != nil {
		if v, ok := x.Fallback.Extract(s); ok && v != "" {
			Logger(ctx).Info("Extraction fell back", "target", x.Target, "fallback", x.Fallback.Name)
			return s.Set(x.Target, v).
				Append(domain.RoleSystem, domain.KindText, fmt.Sprintf("fallback %s extracted %s: `%s`", x.Fallback.Name, x.Target, v))
		}
	}

	f := *cause
	f.Message = fmt.Sprintf("could not extract %s: %s", x.Target, cause.Message)
	return s.WithFault(&f)
}

// ask runs the model and writes the target on success. It returns the reason when
// nothing was written.
func (x *Extraction) ask(ctx context.Context, sp **domain.State) *domain.Fault {
	s := *sp
	tpl, err := x.Prompt.Resolve(ctx)
	if err != nil {
		f := &domain.Fault{Kind: domain.FaultModelError, Code: domain.CodeNotFound, Message: err.Error()}
		*sp = s.AppendMessage(domain.Message{Role: domain.RoleSystem, Kind: domain.KindModelError, Content: f.Error()})
		return f
	}

	inputs := x.Inputs
	if inputs == nil {
		inputs = FieldsWithRequest
	}
	call := domain.ModelCall{Prompt: prompt.Render(tpl, inputs(s)), Deadline: x.Deadline}

	records := Retry(ctx, x.Retry, func(ctx context.Context) domain.CallRecord {
		return InvokeModel(ctx, x.Model, call)
	})
	s = RecordAll(s, records...)
	last := Last(records)
	if !last.OK() {
		*sp = s
		return last.Fault
	}

	v := CleanValue(last.Text)
	if v == "" {
		*sp = s.Append(domain.RoleSystem, domain.KindText, "model returned an empty answer")
		return &domain.Fault{Kind: domain.FaultModelError, Message: "empty answer"}
	}
	*sp = s.Set(x.Target, v).
		Append(domain.RoleSystem, domain.KindText, fmt.Sprintf("extracted %s: `%s`", x.Target, v))
	return nil
}
