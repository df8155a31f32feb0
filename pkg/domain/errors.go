package domain

import "errors"

// ErrUnknownNode is returned when a workflow references a node absent from its registry.
var ErrUnknownNode = errors.New("unknown node")

// ErrInvalidWorkflow is returned when a workflow definition cannot be run.
var ErrInvalidWorkflow = errors.New("invalid workflow")

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrUnknownCapability is returned by tool adapters for capabilities they do not serve.
var ErrUnknownCapability = errors.New("unknown capability")

// ErrInvalidRequest is returned when request text is rejected before a run starts.
var ErrInvalidRequest = errors.New("invalid request")
