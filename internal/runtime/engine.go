package runtime

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/meshed/agentgraph/internal/logging"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/graph"
	"github.com/meshed/agentgraph/pkg/nodekit"
)

// Engine drives workflow instances: execute the node under the cursor, ask the
// router for the next one, repeat until the router answers Terminal, a fatal fault
// occurs or the step cap trips.
//
// An Engine holds no per-run state and can run many instances concurrently.
type Engine struct {
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	now         func() time.Time
	newID       func() string
	stepTimeout time.Duration
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type run struct {
	engine   *Engine
	wf       *graph.Workflow
	id       string
	workflow string
	logger   *slog.Logger
}

// Stream executes wf from initial and yields one snapshot per executed step.
//
// The only error it yields is a definition error, before any step runs. Every other
// failure is reported as the Fault of the last snapshot. Stopping the iteration
// early abandons the run.
func (e *Engine) Stream(ctx context.Context, wf *graph.Workflow, initial *domain.State) iter.Seq2[*domain.State, error] {
	return func(yield func(*domain.State, error) bool) {
		if err := wf.Validate(); err != nil {
			yield(nil, err)
			return
		}
		if initial == nil {
			initial = domain.NewState(nil)
		}

		r := &run{engine: e, wf: wf, id: initial.RunID, workflow: wf.Name}
		if r.id == "" {
			r.id = e.newID()
		}
		r.logger = e.logger.With("run_id", r.id, "workflow", wf.Name)

		state := initial.WithRunID(r.id).WithClock(e.now)
		defer func() { r.emitRunFinish(ctx, state) }()

		r.logger.Debug("Run started", "start", wf.Start, "max_steps", wf.MaxSteps)
		cursor := wf.Start
		for {
			if err := ctx.Err(); err != nil {
				state = r.cancel(state, cursor, err)
				yield(state, nil)
				return
			}

			node, ok := wf.Nodes.Lookup(cursor)
			if !ok {
				state = state.WithFault(&domain.Fault{
					Kind:    domain.FaultUnknownNode,
					Message: "node " + strconv.Quote(cursor) + " is not registered",
					Node:    cursor,
				})
				r.logger.Error("Unknown node", "node", cursor)
				yield(state, nil)
				return
			}

			state = r.execute(ctx, cursor, node, state)
			if !yield(state, nil) {
				return
			}

			next := wf.Router.Next(state)
			if next == domain.Terminal {
				r.logger.Debug("Run finished", "steps", state.Step, "fault", state.Fault)
				return
			}
			if next == "" {
				state = state.WithFault(domain.NewFault(domain.FaultUnknownNode, "router has no route from %q", cursor))
				r.logger.Error("Router undecided", "node", cursor)
				yield(state, nil)
				return
			}
			if state.Step >= wf.MaxSteps {
				state = state.WithFault(domain.NewFault(domain.FaultStepLimitExceeded,
					"stopped after %d steps, router wanted %q", state.Step, next))
				r.logger.Warn("Step limit exceeded", "steps", state.Step, "next", next)
				yield(state, nil)
				return
			}
			cursor = next
		}
	}
}

// Run executes wf to completion and returns the final snapshot.
func (e *Engine) Run(ctx context.Context, wf *graph.Workflow, initial *domain.State) (*domain.State, error) {
	var final *domain.State
	for s, err := range e.Stream(ctx, wf, initial) {
		if err != nil {
			return nil, err
		}
		final = s
	}
	return final, nil
}

func (r *run) execute(ctx context.Context, cursor string, node domain.Node, state *domain.State) *domain.State {
	step := state.Step + 1
	r.emitNodeEnter(ctx, cursor, step)

	nodeCtx := nodekit.WithRun(ctx, nodekit.RunInfo{
		RunID:    r.id,
		Workflow: r.workflow,
		Node:     cursor,
		Logger:   r.logger.With("node", cursor),
		Hooks:    r.engine.hooks,
		Now:      r.engine.now,
	})
	if r.engine.stepTimeout > 0 {
		var cancel context.CancelFunc
		nodeCtx, cancel = context.WithTimeout(nodeCtx, r.engine.stepTimeout)
		defer cancel()
	}

	start := time.Now()
	out := nodekit.Guard(node).Execute(nodeCtx, state.WithCursor(cursor))
	out = out.WithCursor(cursor).WithStep(step).WithRunID(r.id)

	elapsed := time.Since(start)
	r.logger.Debug("Node executed", "node", cursor, "step", step, "duration", elapsed, "fault", out.Fault)
	r.emitNodeLeave(ctx, out, elapsed)
	return out
}

func (r *run) cancel(state *domain.State, cursor string, cause error) *domain.State {
	code := domain.CodeCanceled
	if errors.Is(cause, context.DeadlineExceeded) {
		code = domain.CodeTimeout
	}
	r.logger.Info("Run canceled", "steps", state.Step, "next", cursor, "err", cause)
	return state.WithFault(&domain.Fault{
		Kind:    domain.FaultCanceled,
		Code:    code,
		Message: "canceled before " + cursor + ": " + cause.Error(),
		Node:    cursor,
	})
}
