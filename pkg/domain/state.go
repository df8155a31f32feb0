package domain

import (
	"slices"
	"time"

	"github.com/mohae/deepcopy"
	"github.com/spf13/cast"
)

// State represents the snapshot threaded through every step of a workflow instance.
//
// State is immutable by convention: every operation returns a new *State and leaves
// the receiver untouched, so a snapshot yielded to an observer never changes afterwards.
type State struct {
	// RunID correlates the snapshot with its workflow instance.
	RunID string `json:"run_id,omitempty"`

	// Cursor is the name of the node that just executed.
	Cursor string `json:"cursor"`

	// Step counts node executions so far. Routers must not consult it.
	Step int `json:"step"`

	// Trace is the append-only audit log of the instance.
	Trace []Message `json:"trace"`

	// Fields holds workflow-defined intermediate and final data.
	Fields map[string]any `json:"fields"`

	// Fault is set by a node that could not complete, or by the engine.
	Fault *Fault `json:"fault,omitempty"`

	now func() time.Time
}

// NewState creates the initial snapshot of a workflow instance.
// The supplied fields are copied; the trace starts empty.
func NewState(fields map[string]any) *State {
	s := &State{
		Trace:  []Message{},
		Fields: make(map[string]any, len(fields)),
	}
	for k, v := range fields {
		s.Fields[k] = deepcopy.Copy(v)
	}
	return s
}

// WithClock returns a copy whose trace timestamps are produced by now.
func (s *State) WithClock(now func() time.Time) *State {
	next := s.shallow()
	next.now = now
	return next
}

// Clone returns a deep copy of the snapshot.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := s.shallow()
	next.Fields = make(map[string]any, len(s.Fields))
	for k, v := range s.Fields {
		next.Fields[k] = deepcopy.Copy(v)
	}
	if s.Fault != nil {
		f := *s.Fault
		next.Fault = &f
	}
	return next
}

// shallow copies the header and clips the trace so that appends on the copy
// always reallocate instead of writing into the receiver's backing array.
func (s *State) shallow() *State {
	next := *s
	next.Trace = slices.Clip(s.Trace)
	return &next
}

func (s *State) timestamp() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// Append returns a new snapshot with a message appended to the trace.
func (s *State) Append(role Role, kind MessageKind, content string) *State {
	return s.AppendMessage(Message{Role: role, Kind: kind, Content: content})
}

// AppendMessage returns a new snapshot with msg appended to the trace.
// A zero timestamp is filled from the snapshot clock and an empty node from the cursor.
func (s *State) AppendMessage(msg Message) *State {
	next := s.shallow()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.timestamp()
	}
	if msg.Node == "" {
		msg.Node = s.Cursor
	}
	if msg.Kind == "" {
		msg.Kind = KindText
	}
	next.Trace = append(next.Trace, msg)
	return next
}

// Set returns a new snapshot with key set to value.
func (s *State) Set(key string, value any) *State {
	next := s.shallow()
	next.Fields = make(map[string]any, len(s.Fields)+1)
	for k, v := range s.Fields {
		next.Fields[k] = v
	}
	next.Fields[key] = value
	return next
}

// SetAll returns a new snapshot with every entry of values applied.
func (s *State) SetAll(values map[string]any) *State {
	next := s.shallow()
	next.Fields = make(map[string]any, len(s.Fields)+len(values))
	for k, v := range s.Fields {
		next.Fields[k] = v
	}
	for k, v := range values {
		next.Fields[k] = v
	}
	return next
}

// Get returns the value stored under key. Absence is reported through ok.
func (s *State) Get(key string) (any, bool) {
	if s == nil || s.Fields == nil {
		return nil, false
	}
	v, ok := s.Fields[key]
	return v, ok
}

// GetString returns the value under key coerced to a string.
// ok is false when the key is absent, nil, or not representable as a string.
func (s *State) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok || v == nil {
		return "", false
	}
	str, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return str, true
}

// Has reports whether key holds a non-empty value.
// Empty strings, nil values and empty collections count as absent.
func (s *State) Has(key string) bool {
	v, ok := s.Get(key)
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

// WithCursor returns a new snapshot positioned on node.
func (s *State) WithCursor(node string) *State {
	next := s.shallow()
	next.Cursor = node
	return next
}

// WithStep returns a new snapshot with the step counter set.
func (s *State) WithStep(step int) *State {
	next := s.shallow()
	next.Step = step
	return next
}

// WithRunID returns a new snapshot correlated with run id.
func (s *State) WithRunID(id string) *State {
	next := s.shallow()
	next.RunID = id
	return next
}

// WithFault returns a new snapshot carrying f and a matching "fault" trace entry.
func (s *State) WithFault(f *Fault) *State {
	if f == nil {
		return s
	}
	fault := *f
	if fault.Node == "" {
		fault.Node = s.Cursor
	}
	next := s.AppendMessage(Message{
		Role:    RoleSystem,
		Kind:    KindFault,
		Node:    fault.Node,
		Content: fault.Error(),
	})
	next.Fault = &fault
	return next
}

// Recover clears the fault, keeping it in the trace as a "recovered" entry.
func (s *State) Recover(note string) *State {
	if s.Fault == nil {
		return s
	}
	content := s.Fault.Error()
	if note != "" {
		content = note + ": " + content
	}
	next := s.AppendMessage(Message{Role: RoleSystem, Kind: KindRecovered, Content: content})
	next.Fault = nil
	return next
}

// Failed reports whether the snapshot carries a fault.
func (s *State) Failed() bool {
	return s != nil && s.Fault != nil
}

// MessagesByRole returns the trace entries with the given role, in order.
func (s *State) MessagesByRole(role Role) []Message {
	var out []Message
	for _, m := range s.Trace {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}
