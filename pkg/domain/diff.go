package domain

import (
	"reflect"
)

// StateDiff represents the changes between two successive snapshots.
// It is designed to be serialized to JSON for step-by-step streaming.
type StateDiff struct {
	RunID string `json:"run_id"`
	Step  int    `json:"step"`

	Cursor *string `json:"cursor,omitempty"`

	// Fields contains only added or changed keys.
	Fields map[string]any `json:"fields,omitempty"`

	// Appended holds the trace entries added since the previous snapshot.
	Appended []Message `json:"appended,omitempty"`

	// Fault is set when the fault changed (including when it was cleared, as an empty kind).
	Fault *Fault `json:"fault,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState.
// It returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		RunID: newState.RunID,
		Step:  newState.Step,
	}

	if oldState == nil || oldState.Cursor != newState.Cursor {
		cursor := newState.Cursor
		diff.Cursor = &cursor
	}

	diff.Fields = diffFields(oldState, newState)
	diff.Appended = diffTrace(oldState, newState)

	switch {
	case newState.Fault != nil && (oldState == nil || !reflect.DeepEqual(oldState.Fault, newState.Fault)):
		f := *newState.Fault
		diff.Fault = &f
	case newState.Fault == nil && oldState != nil && oldState.Fault != nil:
		diff.Fault = &Fault{}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffFields(old *State, new *State) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Fields {
			delta[k] = v
		}
	} else {
		for k, newVal := range new.Fields {
			oldVal, exists := old.Fields[k]
			if !exists || !reflect.DeepEqual(oldVal, newVal) {
				delta[k] = newVal
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffTrace relies on the trace being append-only.
func diffTrace(old *State, new *State) []Message {
	if old == nil {
		if len(new.Trace) == 0 {
			return nil
		}
		return new.Trace
	}
	if len(new.Trace) > len(old.Trace) {
		return new.Trace[len(old.Trace):]
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Cursor == nil &&
		len(d.Fields) == 0 &&
		len(d.Appended) == 0 &&
		d.Fault == nil
}
