package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
)

// Response is one scripted adapter outcome.
type Response struct {
	Result any
	Text   string
	Err    error
	// Delay holds the call before answering; the caller's context still applies.
	Delay time.Duration
}

// Tools is a scripted ports.ToolAdapter used by tests and dry runs.
// Each capability owns a queue of responses; the last one repeats once the queue drains.
type Tools struct {
	mu     sync.Mutex
	queues map[string][]Response
	calls  []domain.ToolCall
}

// NewTools creates an empty scripted tool adapter.
func NewTools() *Tools {
	return &Tools{queues: make(map[string][]Response)}
}

// On appends responses to the queue of capability.
func (t *Tools) On(capability string, responses ...Response) *Tools {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queues[capability] = append(t.queues[capability], responses...)
	return t
}

// Returns scripts a successful result for capability.
func (t *Tools) Returns(capability string, result any) *Tools {
	return t.On(capability, Response{Result: result})
}

// Fails scripts a failure for capability.
func (t *Tools) Fails(capability string, err error) *Tools {
	return t.On(capability, Response{Err: err})
}

// Invoke implements ports.ToolAdapter.
func (t *Tools) Invoke(ctx context.Context, call domain.ToolCall) (any, error) {
	t.mu.Lock()
	t.calls = append(t.calls, call)
	resp, ok := next(t.queues, call.Capability)
	t.mu.Unlock()

	if !ok {
		return nil, &domain.Fault{
			Kind:    domain.FaultToolError,
			Code:    domain.CodeNotFound,
			Message: "no scripted response for " + call.Capability,
		}
	}
	if err := wait(ctx, resp.Delay); err != nil {
		return nil, err
	}
	return resp.Result, resp.Err
}

// Calls returns the calls received so far, in order.
func (t *Tools) Calls() []domain.ToolCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.ToolCall(nil), t.calls...)
}

// ListCapabilities implements ports.CapabilityLister.
func (t *Tools) ListCapabilities(ctx context.Context) ([]domain.Capability, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	caps := make([]domain.Capability, 0, len(t.queues))
	for name := range t.queues {
		caps = append(caps, domain.Capability{Name: name, Description: "scripted"})
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Name < caps[j].Name })
	return caps, nil
}

func next(queues map[string][]Response, key string) (Response, bool) {
	q := queues[key]
	if len(q) == 0 {
		return Response{}, false
	}
	resp := q[0]
	if len(q) > 1 {
		queues[key] = q[1:]
	}
	return resp, true
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
