package agentgraph

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/meshed/agentgraph/internal/logging"
	"github.com/meshed/agentgraph/internal/presentation/graph"
	"github.com/meshed/agentgraph/internal/runtime"
	"github.com/meshed/agentgraph/pkg/adapters/memory"
	"github.com/meshed/agentgraph/pkg/domain"
	flow "github.com/meshed/agentgraph/pkg/graph"
	"github.com/meshed/agentgraph/pkg/ports"
)

// Version is the library version reported by the CLI and servers.
const Version = "0.4.0"

// Engine is the high-level entry point for the agentgraph library.
// It wraps the internal runtime with a catalog of named workflows and a store for
// finished run records.
type Engine struct {
	runtime *runtime.Engine
	store   ports.RunStore
	logger  *slog.Logger
	now     func() time.Time

	maxRequestSize int

	runtimeOpts []runtime.EngineOption

	mu        sync.RWMutex
	workflows map[string]*flow.Workflow
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks. Repeated calls merge.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock sets the time source for trace timestamps and run records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(now))
	}
}

// WithIDGenerator sets how run IDs are minted.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithIDGenerator(gen))
	}
}

// WithStepTimeout bounds the execution of each node.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithStepTimeout(d))
	}
}

// WithMaxRequestSize bounds request text in bytes. Zero or less disables the check.
func WithMaxRequestSize(n int) Option {
	return func(e *Engine) {
		e.maxRequestSize = n
	}
}

// WithStore sets where finished run records are kept. Defaults to memory.
func WithStore(store ports.RunStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithWorkflows registers workflows at construction.
func WithWorkflows(wfs ...*flow.Workflow) Option {
	return func(e *Engine) {
		for _, wf := range wfs {
			if wf != nil {
				e.workflows[wf.Name] = wf
			}
		}
	}
}

// New initializes an Engine.
// Every registered workflow is checked, including router totality.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		workflows:      make(map[string]*flow.Workflow),
		maxRequestSize: DefaultMaxRequestSize,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.now == nil {
		eng.now = func() time.Time { return time.Now().UTC() }
	}

	for name, wf := range eng.workflows {
		if err := wf.Check(); err != nil {
			return nil, fmt.Errorf("workflow %q: %w", name, err)
		}
	}

	runtimeOpts := append([]runtime.EngineOption{runtime.WithLogger(eng.logger)}, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(runtimeOpts...)
	return eng, nil
}

// Register adds a workflow to the catalog, replacing one with the same name.
func (e *Engine) Register(wf *flow.Workflow) error {
	if err := wf.Check(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workflows[wf.Name] = wf
	return nil
}

// Workflow returns the registered workflow with the given name.
func (e *Engine) Workflow(name string) (*flow.Workflow, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	wf, ok := e.workflows[name]
	return wf, ok
}

// Stream executes wf step by step. See runtime.Engine.Stream.
func (e *Engine) Stream(ctx context.Context, wf *flow.Workflow, initial *domain.State) iter.Seq2[*domain.State, error] {
	return e.runtime.Stream(ctx, wf, initial)
}

// Run executes wf from initial and stores the resulting record.
func (e *Engine) Run(ctx context.Context, wf *flow.Workflow, initial *domain.State) (*domain.RunRecord, error) {
	return e.Execute(ctx, wf, initial, nil)
}

// Execute is Run with a callback invoked for every yielded snapshot, together with
// the snapshot before it (nil for the first step).
func (e *Engine) Execute(ctx context.Context, wf *flow.Workflow, initial *domain.State, onStep func(prev, next *domain.State)) (*domain.RunRecord, error) {
	started := e.now()
	var prev *domain.State
	for s, err := range e.Stream(ctx, wf, initial) {
		if err != nil {
			return nil, err
		}
		if onStep != nil {
			onStep(prev, s)
		}
		prev = s
	}

	record := &domain.RunRecord{
		ID:         prev.RunID,
		Workflow:   wf.Name,
		StartedAt:  started,
		FinishedAt: e.now(),
		Steps:      prev.Step,
		Final:      prev,
	}
	// Store failures must not hide the run outcome; the record is still returned.
	if err := e.store.Save(context.WithoutCancel(ctx), record); err != nil {
		e.logger.Error("Failed to save run record", "run_id", record.ID, "err", err)
	}
	return record, nil
}

// Workflows implements ports.WorkflowService.
func (e *Engine) Workflows() []ports.WorkflowInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	infos := make([]ports.WorkflowInfo, 0, len(e.workflows))
	for _, wf := range e.workflows {
		infos = append(infos, ports.WorkflowInfo{
			Name:        wf.Name,
			Description: wf.Description,
			Start:       wf.Start,
			Nodes:       wf.Nodes.Names(),
			MaxSteps:    wf.MaxSteps,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Start implements ports.WorkflowService.
func (e *Engine) Start(ctx context.Context, workflow string, request string, fields map[string]any) (*domain.RunRecord, error) {
	return e.StartStream(ctx, workflow, request, fields, nil)
}

// StartStream implements ports.StreamingService. The request is sanitized
// before it becomes the first trace entry.
func (e *Engine) StartStream(ctx context.Context, workflow string, request string, fields map[string]any, onStep func(prev, next *domain.State)) (*domain.RunRecord, error) {
	wf, ok := e.Workflow(workflow)
	if !ok {
		return nil, fmt.Errorf("%w: workflow %q", domain.ErrInvalidWorkflow, workflow)
	}
	request, err := SanitizeRequest(request, e.maxRequestSize)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, wf, wf.Initial(request, fields), onStep)
}

// Graph implements ports.WorkflowService.
func (e *Engine) Graph(workflow string) (string, error) {
	wf, ok := e.Workflow(workflow)
	if !ok {
		return "", fmt.Errorf("%w: workflow %q", domain.ErrInvalidWorkflow, workflow)
	}
	return graph.GenerateMermaid(wf, nil), nil
}

// Runs implements ports.WorkflowService.
func (e *Engine) Runs() ports.RunStore {
	return e.store
}

var _ ports.StreamingService = (*Engine)(nil)
