package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ToolCall is a request to invoke a named remote capability.
type ToolCall struct {
	Capability string         `json:"capability" yaml:"capability" mapstructure:"capability"`
	Args       map[string]any `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`

	// Deadline bounds the call; zero means no deadline beyond the caller's context.
	Deadline time.Duration `json:"deadline,omitempty" yaml:"deadline,omitempty" mapstructure:"deadline"`
}

// ModelCall is a request to a language model with an already rendered prompt.
type ModelCall struct {
	Prompt   string        `json:"prompt"`
	Deadline time.Duration `json:"deadline,omitempty"`
}

// Capability describes a tool capability exposed by an adapter.
type Capability struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}

// CallRecord is the transient outcome of one adapter call.
// It only survives as the trace entries it is mapped into.
type CallRecord struct {
	Tool    *ToolCall
	Model   *ModelCall
	Result  any
	Text    string
	Fault   *Fault
	Started time.Time
	Latency time.Duration
}

// OK reports whether the call succeeded.
func (r CallRecord) OK() bool {
	return r.Fault == nil
}

// Record appends the request and its outcome to the trace of s.
func (r CallRecord) Record(s *State) *State {
	switch {
	case r.Tool != nil:
		s = s.AppendMessage(Message{
			Role:       RoleSystem,
			Kind:       KindToolCall,
			Capability: r.Tool.Capability,
			Content:    marshalCompact(r.Tool.Args),
			Timestamp:  r.Started,
		})
		if r.Fault != nil {
			return s.AppendMessage(Message{
				Role:       RoleTool,
				Kind:       KindToolError,
				Capability: r.Tool.Capability,
				Content:    r.Fault.Error(),
				Latency:    r.Latency,
			})
		}
		return s.AppendMessage(Message{
			Role:       RoleTool,
			Kind:       KindToolResult,
			Capability: r.Tool.Capability,
			Content:    marshalCompact(r.Result),
			Latency:    r.Latency,
		})
	case r.Model != nil:
		s = s.AppendMessage(Message{
			Role:      RoleSystem,
			Kind:      KindModelCall,
			Content:   r.Model.Prompt,
			Timestamp: r.Started,
		})
		if r.Fault != nil {
			return s.AppendMessage(Message{
				Role:    RoleModel,
				Kind:    KindModelError,
				Content: r.Fault.Error(),
				Latency: r.Latency,
			})
		}
		return s.AppendMessage(Message{
			Role:    RoleModel,
			Kind:    KindModelResult,
			Content: r.Text,
			Latency: r.Latency,
		})
	}
	return s
}

func marshalCompact(v any) string {
	if v == nil {
		return "null"
	}
	if str, ok := v.(string); ok {
		return str
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
