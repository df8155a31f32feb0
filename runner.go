package agentgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/meshed/agentgraph/pkg/domain"
	flow "github.com/meshed/agentgraph/pkg/graph"
	"github.com/meshed/agentgraph/pkg/ports"
)

// Runner executes a workflow and reports every step to Output.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Output io.Writer

	// JSON prints one state diff per line instead of text.
	JSON bool

	// Renderer transforms trace content before it is printed (e.g. markdown to ANSI).
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms the content before outputting it.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner writing text to w.
func NewRunner(w io.Writer) *Runner {
	return &Runner{Output: w}
}

// Run executes wf with engine, printing each step as it completes.
func (r *Runner) Run(ctx context.Context, engine *Engine, wf *flow.Workflow, initial *domain.State) (*domain.RunRecord, error) {
	if r.Output == nil {
		return nil, fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	var writeErr error
	record, err := engine.Execute(ctx, wf, initial, func(prev, next *domain.State) {
		if writeErr != nil {
			return
		}
		writeErr = r.step(prev, next)
	})
	if err != nil {
		return nil, err
	}
	if writeErr != nil {
		return record, fmt.Errorf("failed to write step output: %w", writeErr)
	}
	return record, nil
}

// Start runs a registered workflow through svc, printing each step as it completes.
func (r *Runner) Start(ctx context.Context, svc ports.StreamingService, workflow, request string, fields map[string]any) (*domain.RunRecord, error) {
	if r.Output == nil {
		return nil, fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	var writeErr error
	record, err := svc.StartStream(ctx, workflow, request, fields, func(prev, next *domain.State) {
		if writeErr != nil {
			return
		}
		writeErr = r.step(prev, next)
	})
	if err != nil {
		return nil, err
	}
	if writeErr != nil {
		return record, fmt.Errorf("failed to write step output: %w", writeErr)
	}
	return record, nil
}

func (r *Runner) step(prev, next *domain.State) error {
	diff := domain.Diff(prev, next)
	if diff == nil {
		return nil
	}

	if r.JSON {
		b, err := json.Marshal(diff)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(r.Output, string(b))
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "── step %d · %s\n", next.Step, next.Cursor)
	for _, m := range diff.Appended {
		content := m.Content
		if r.Renderer != nil && m.Kind == domain.KindText {
			if rendered, err := r.Renderer(content); err == nil {
				content = strings.TrimRight(rendered, "\n")
			}
		}
		label := string(m.Role)
		if m.Kind != domain.KindText {
			label += "/" + string(m.Kind)
		}
		if m.Capability != "" {
			label += " " + m.Capability
		}
		fmt.Fprintf(&sb, "  [%s] %s\n", label, truncate(content, 400))
	}
	for _, k := range sortedKeys(diff.Fields) {
		fmt.Fprintf(&sb, "  %s = %s\n", k, truncate(fmt.Sprint(diff.Fields[k]), 120))
	}
	_, err := io.WriteString(r.Output, sb.String())
	return err
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ⏎ ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
