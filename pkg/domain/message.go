package domain

import (
	"time"
)

// Role identifies who produced a trace entry.
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleTool   Role = "tool"
	RoleModel  Role = "model"
)

// MessageKind classifies a trace entry.
type MessageKind string

const (
	KindText              MessageKind = "text"
	KindToolCall          MessageKind = "tool-call"
	KindToolResult        MessageKind = "tool-result"
	KindToolError         MessageKind = "tool-error"
	KindModelCall         MessageKind = "model-call"
	KindModelResult       MessageKind = "model-result"
	KindModelError        MessageKind = "model-error"
	KindContractViolation MessageKind = "contract-violation"
	KindFault             MessageKind = "fault"
	KindRecovered         MessageKind = "recovered"
)

// Message is one entry of the trace.
type Message struct {
	Role      Role        `json:"role"`
	Kind      MessageKind `json:"kind"`
	Node      string      `json:"node,omitempty"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`

	// Capability names the tool capability for tool entries.
	Capability string `json:"capability,omitempty"`

	// Latency is set on the outcome entry of an adapter call.
	Latency time.Duration `json:"latency,omitempty"`
}

// HumanMessage builds a human-authored trace entry, typically the workflow request.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Kind: KindText, Content: content}
}

// SystemMessage builds a system trace entry.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Kind: KindText, Content: content}
}
