package domain

import (
	"context"
	"errors"
	"fmt"
)

// FaultKind is the machine-readable category of a fault.
type FaultKind string

const (
	// FaultToolError reports a failed tool adapter call (network, auth, malformed args).
	FaultToolError FaultKind = "tool-error"
	// FaultModelError reports a failed or timed out model adapter call.
	FaultModelError FaultKind = "model-error"
	// FaultContractViolation reports structured model output that failed schema validation.
	FaultContractViolation FaultKind = "contract-violation"
	// FaultUnknownNode reports a node name absent from the registry. Always fatal.
	FaultUnknownNode FaultKind = "unknown-node"
	// FaultStepLimitExceeded reports that the engine's iteration cap tripped.
	FaultStepLimitExceeded FaultKind = "step-limit-exceeded"
	// FaultCanceled reports that the caller canceled the run between steps.
	FaultCanceled FaultKind = "canceled"
	// FaultNodePanic reports a node body that panicked instead of returning a state.
	FaultNodePanic FaultKind = "node-panic"
)

// Fault codes refine a kind for adapter failures.
const (
	CodeTimeout     = "timeout"
	CodeCanceled    = "canceled"
	CodeUnavailable = "unavailable"
	CodeNotFound    = "not_found"
	CodeInvalidArgs = "invalid_args"
	CodeRemote      = "remote"
)

// Fault is the structured error descriptor carried by State and returned by adapters.
type Fault struct {
	Kind    FaultKind `json:"kind"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message"`
	Node    string    `json:"node,omitempty"`
}

func (f *Fault) Error() string {
	if f.Code != "" {
		return fmt.Sprintf("%s (%s): %s", f.Kind, f.Code, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Is matches faults by kind so that errors.Is(err, &Fault{Kind: ...}) works.
func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	if !ok {
		return false
	}
	return t.Kind == f.Kind && (t.Code == "" || t.Code == f.Code)
}

// NewFault creates a fault of the given kind.
func NewFault(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsFault normalizes err into a fault.
// An error that already wraps a *Fault keeps its code and message but takes kind;
// deadline expiry and cancellation become CodeTimeout and CodeCanceled.
func AsFault(err error, kind FaultKind) *Fault {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		out := *f
		out.Kind = kind
		return &out
	}
	out := &Fault{Kind: kind, Message: err.Error()}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		out.Code = CodeTimeout
	case errors.Is(err, context.Canceled):
		out.Code = CodeCanceled
	}
	return out
}
