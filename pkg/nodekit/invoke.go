package nodekit

import (
	"context"
	"fmt"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// InvokeTool calls a tool adapter and captures the outcome.
//
// The call deadline, if any, is applied on top of ctx. Errors never escape: they
// become a tool-error fault on the returned record, with Code timeout on deadline
// expiry and unavailable when no adapter is configured.
func InvokeTool(ctx context.Context, tools ports.ToolAdapter, call domain.ToolCall) domain.CallRecord {
	run := Run(ctx)
	rec := domain.CallRecord{Tool: &call, Started: run.now()}

	if h := run.Hooks.OnToolCall; h != nil {
		h(ctx, &domain.ToolEvent{EventBase: run.base(domain.EventToolCall), NodeID: run.Node, Capability: call.Capability, Input: call.Args})
	}

	if tools == nil {
		rec.Fault = &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeUnavailable, Message: "no tool adapter configured"}
	} else {
		callCtx, cancel := withDeadline(ctx, call.Deadline)
		start := time.Now()
		result, err := safeInvoke(callCtx, tools, call)
		rec.Latency = time.Since(start)
		if err != nil {
			rec.Fault = normalize(callCtx, err, domain.FaultToolError)
		} else {
			rec.Result = result
		}
		cancel()
	}

	if rec.Fault != nil {
		run.Logger.Warn("Tool call failed", "capability", call.Capability, "err", rec.Fault, "latency", rec.Latency)
	} else {
		run.Logger.Debug("Tool call returned", "capability", call.Capability, "latency", rec.Latency)
	}
	if h := run.Hooks.OnToolReturn; h != nil {
		h(ctx, &domain.ToolEvent{
			EventBase:  run.base(domain.EventToolReturn),
			NodeID:     run.Node,
			Capability: call.Capability,
			Input:      call.Args,
			Output:     rec.Result,
			Fault:      rec.Fault,
			Latency:    rec.Latency,
		})
	}
	return rec
}

// InvokeModel calls a model adapter and captures the outcome, with the same error
// normalization as InvokeTool (fault kind model-error).
func InvokeModel(ctx context.Context, model ports.ModelAdapter, call domain.ModelCall) domain.CallRecord {
	run := Run(ctx)
	rec := domain.CallRecord{Model: &call, Started: run.now()}

	if h := run.Hooks.OnModelCall; h != nil {
		h(ctx, &domain.ModelEvent{EventBase: run.base(domain.EventModelCall), NodeID: run.Node, Prompt: call.Prompt})
	}

	if model == nil {
		rec.Fault = &domain.Fault{Kind: domain.FaultModelError, Code: domain.CodeUnavailable, Message: "no model adapter configured"}
	} else {
		callCtx, cancel := withDeadline(ctx, call.Deadline)
		start := time.Now()
		text, err := safeGenerate(callCtx, model, call)
		rec.Latency = time.Since(start)
		if err != nil {
			rec.Fault = normalize(callCtx, err, domain.FaultModelError)
		} else {
			rec.Text = text
		}
		cancel()
	}

	if rec.Fault != nil {
		run.Logger.Warn("Model call failed", "err", rec.Fault, "latency", rec.Latency)
	} else {
		run.Logger.Debug("Model call returned", "latency", rec.Latency, "chars", len(rec.Text))
	}
	if h := run.Hooks.OnModelReturn; h != nil {
		h(ctx, &domain.ModelEvent{
			EventBase: run.base(domain.EventModelReturn),
			NodeID:    run.Node,
			Prompt:    call.Prompt,
			Output:    rec.Text,
			Fault:     rec.Fault,
			Latency:   rec.Latency,
		})
	}
	return rec
}

// InvokeTools runs independent tool calls concurrently and returns their records
// in the order of calls, so recording them afterwards is deterministic.
func InvokeTools(ctx context.Context, tools ports.ToolAdapter, calls ...domain.ToolCall) []domain.CallRecord {
	records := make([]domain.CallRecord, len(calls))
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			records[i] = InvokeTool(ctx, tools, call)
			return nil
		})
	}
	_ = g.Wait()
	return records
}

// RecordAll appends every record to the trace of s, in order.
func RecordAll(s *domain.State, records ...domain.CallRecord) *domain.State {
	for _, r := range records {
		s = r.Record(s)
	}
	return s
}

func withDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// normalize maps err into a fault. An expired call context wins over whatever the
// adapter returned, since adapters often wrap the deadline in their own errors.
func normalize(callCtx context.Context, err error, kind domain.FaultKind) *domain.Fault {
	f := domain.AsFault(err, kind)
	switch callCtx.Err() {
	case context.DeadlineExceeded:
		f.Code = domain.CodeTimeout
	case context.Canceled:
		if f.Code == "" {
			f.Code = domain.CodeCanceled
		}
	}
	return f
}

func safeInvoke(ctx context.Context, tools ports.ToolAdapter, call domain.ToolCall) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool adapter panicked: %v", r)
		}
	}()
	return tools.Invoke(ctx, call)
}

func safeGenerate(ctx context.Context, model ports.ModelAdapter, call domain.ModelCall) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model adapter panicked: %v", r)
		}
	}()
	return model.Generate(ctx, call)
}
