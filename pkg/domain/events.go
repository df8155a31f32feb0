package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter   EventType = "node_enter"
	EventNodeLeave   EventType = "node_leave"
	EventToolCall    EventType = "tool_call"
	EventToolReturn  EventType = "tool_return"
	EventModelCall   EventType = "model_call"
	EventModelReturn EventType = "model_return"
	EventRunFinish   EventType = "run_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Workflow  string    `json:"workflow,omitempty"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID string `json:"node_id"`
	Step   int    `json:"step"`
	Fault  *Fault `json:"fault,omitempty"`

	// Latency is set on leave events.
	Latency time.Duration `json:"latency,omitempty"`
}

// ToolEvent represents a tool adapter call.
type ToolEvent struct {
	EventBase
	NodeID     string        `json:"node_id"`
	Capability string        `json:"capability"`
	Input      any           `json:"input,omitempty"`
	Output     any           `json:"output,omitempty"`
	Fault      *Fault        `json:"fault,omitempty"`
	Latency    time.Duration `json:"latency,omitempty"`
}

// ModelEvent represents a model adapter call.
type ModelEvent struct {
	EventBase
	NodeID  string        `json:"node_id"`
	Prompt  string        `json:"prompt,omitempty"`
	Output  string        `json:"output,omitempty"`
	Fault   *Fault        `json:"fault,omitempty"`
	Latency time.Duration `json:"latency,omitempty"`
}

// RunEvent is emitted once when a run stops.
type RunEvent struct {
	EventBase
	Steps int    `json:"steps"`
	Fault *Fault `json:"fault,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnNodeEnter   func(context.Context, *NodeEvent)
	OnNodeLeave   func(context.Context, *NodeEvent)
	OnToolCall    func(context.Context, *ToolEvent)
	OnToolReturn  func(context.Context, *ToolEvent)
	OnModelCall   func(context.Context, *ModelEvent)
	OnModelReturn func(context.Context, *ModelEvent)
	OnRunFinish   func(context.Context, *RunEvent)
}

// Merge combines two hook sets; both callbacks run, h first.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:   chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:   chain(h.OnNodeLeave, other.OnNodeLeave),
		OnToolCall:    chain(h.OnToolCall, other.OnToolCall),
		OnToolReturn:  chain(h.OnToolReturn, other.OnToolReturn),
		OnModelCall:   chain(h.OnModelCall, other.OnModelCall),
		OnModelReturn: chain(h.OnModelReturn, other.OnModelReturn),
		OnRunFinish:   chain(h.OnRunFinish, other.OnRunFinish),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
