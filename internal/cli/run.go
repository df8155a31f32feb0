package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meshed/agentgraph"
	"github.com/meshed/agentgraph/internal/presentation/tui"
	"github.com/meshed/agentgraph/pkg/domain"
)

// RunOptions contains the configuration of the run command.
type RunOptions struct {
	Workflow string
	Request  string
	Fields   map[string]any
	// JSON prints one state diff per line and nothing else.
	JSON bool
	Out  io.Writer
}

// Run executes a workflow through the app's run manager, printing the steps and a
// summary with the generated artifacts. A run that ends on a fault returns it as
// the error, together with the record.
func Run(ctx context.Context, app *App, opts RunOptions) (*domain.RunRecord, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	rich := !opts.JSON && isTerminal(out)
	if rich {
		tui.PrintBanner(out)
	}

	runner := &agentgraph.Runner{Output: out, JSON: opts.JSON}
	record, err := runner.Start(ctx, app.Service, opts.Workflow, opts.Request, opts.Fields)
	if err != nil {
		return record, err
	}

	if !opts.JSON {
		summary := tui.Summary{}
		if rich {
			summary.Render = tui.NewRenderer()
		}
		if err := summary.Print(out, record, artifacts(record)); err != nil {
			return record, err
		}
		if f := record.Fault(); f != nil {
			fmt.Fprintln(out, tui.FaultLine(out, f))
		}
	}

	if f := record.Fault(); f != nil {
		return record, f
	}
	return record, nil
}

// ParseFields turns key=value pairs into initial fields. Values that parse as JSON
// keep their type; anything else is a string.
func ParseFields(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		fields[key] = v
	}
	return fields, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && tui.IsTerminal(f)
}
