package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/meshed/agentgraph/internal/logging"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
)

// ArgEnvPrefix prefixes every argument exported to the process environment.
const ArgEnvPrefix = "AGENTGRAPH_ARG_"

// Runner is a tool adapter that executes local processes.
// Only registered commands can run (allow-listing); capabilities are tool names.
type Runner struct {
	registry map[string]ToolSpec
	baseDir  string
	logger   *slog.Logger
}

var (
	_ ports.ToolAdapter      = (*Runner)(nil)
	_ ports.CapabilityLister = (*Runner)(nil)
)

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(tools map[string]ToolSpec) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			tool.Name = name
			r.registry[name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]ToolSpec),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted script/command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = ToolSpec{
		Name:    name,
		Command: command,
		Args:    args,
	}
}

// Invoke runs the registered command for call.Capability.
//
// Arguments are never appended to the command line. They are written as a JSON
// object on stdin and exported as AGENTGRAPH_ARG_<KEY> variables. Stdout is decoded
// as JSON when it looks like an object or array, otherwise returned as trimmed text.
func (r *Runner) Invoke(ctx context.Context, call domain.ToolCall) (any, error) {
	proc, ok := r.registry[call.Capability]
	if !ok {
		return nil, &domain.Fault{
			Kind:    domain.FaultToolError,
			Code:    domain.CodeNotFound,
			Message: fmt.Sprintf("%v: process tool not registered: %s", domain.ErrUnknownCapability, call.Capability),
		}
	}

	if proc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, proc.Timeout)
		defer cancel()
	}

	stdin, err := json.Marshal(argsOrEmpty(call.Args))
	if err != nil {
		return nil, &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeInvalidArgs, Message: err.Error()}
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Env = append(cmd.Environ(), environment(proc.Environment, call.Args)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("Executing process tool", "tool", call.Capability, "command", proc.Command)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("process %s: %w", call.Capability, ctxErr)
		}
		code := domain.CodeRemote
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			code = domain.CodeUnavailable
		}
		return nil, &domain.Fault{
			Kind:    domain.FaultToolError,
			Code:    code,
			Message: fmt.Sprintf("execution failed: %v. Stderr: %s", err, strings.TrimSpace(stderr.String())),
		}
	}

	return parseOutput(stdout.String()), nil
}

// ListCapabilities describes every registered tool, sorted by name.
func (r *Runner) ListCapabilities(ctx context.Context) ([]domain.Capability, error) {
	caps := make([]domain.Capability, 0, len(r.registry))
	for name, proc := range r.registry {
		caps = append(caps, domain.Capability{
			Name:        name,
			Description: proc.Description,
			Parameters:  proc.Parameters,
		})
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Name < caps[j].Name })
	return caps, nil
}

func argsOrEmpty(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	return args
}

func environment(static map[string]string, args map[string]any) []string {
	env := make([]string, 0, len(static)+len(args))
	for k, v := range static {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		var val string
		switch v.(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			if b, err := json.Marshal(v); err == nil {
				val = string(b)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, ArgEnvPrefix+strings.ToUpper(k)+"="+val)
	}
	return env
}

func parseOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
