package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/meshed/agentgraph/pkg/domain"
)

type rule struct {
	contains string
	resp     Response
}

// Model is a scripted ports.ModelAdapter.
// Rules registered with When are matched first, by prompt substring, in registration
// order. Otherwise responses queued with Then are consumed in order and the last repeats.
type Model struct {
	mu      sync.Mutex
	rules   []rule
	queue   map[string][]Response
	prompts []string
}

// NewModel creates a scripted model that answers with texts in order.
func NewModel(texts ...string) *Model {
	m := &Model{queue: make(map[string][]Response)}
	for _, text := range texts {
		m.Then(Response{Text: text})
	}
	return m
}

// When answers every prompt containing substr with resp.
func (m *Model) When(substr string, resp Response) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{contains: substr, resp: resp})
	return m
}

// Then queues a response for prompts that match no rule.
func (m *Model) Then(resp Response) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue[""] = append(m.queue[""], resp)
	return m
}

// Generate implements ports.ModelAdapter.
func (m *Model) Generate(ctx context.Context, call domain.ModelCall) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, call.Prompt)
	resp, ok := m.match(call.Prompt)
	m.mu.Unlock()

	if !ok {
		return "", &domain.Fault{
			Kind:    domain.FaultModelError,
			Code:    domain.CodeUnavailable,
			Message: "no scripted response",
		}
	}
	if err := wait(ctx, resp.Delay); err != nil {
		return "", err
	}
	return resp.Text, resp.Err
}

func (m *Model) match(prompt string) (Response, bool) {
	for _, r := range m.rules {
		if strings.Contains(prompt, r.contains) {
			return r.resp, true
		}
	}
	return next(m.queue, "")
}

// Prompts returns the prompts received so far, in order.
func (m *Model) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
