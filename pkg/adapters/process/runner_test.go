package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestRunner_Invoke(t *testing.T) {
	skipOnWindows(t)

	runner := NewRunner()
	runner.Register("greet", "echo", "hello")
	runner.Register("echo_env", "sh", "-c", "echo $AGENTGRAPH_ARG_MSG")
	runner.Register("echo_stdin", "cat")
	runner.Register("fail", "sh", "-c", "echo broken >&2; exit 3")

	t.Run("Executes Registered Command", func(t *testing.T) {
		res, err := runner.Invoke(context.Background(), domain.ToolCall{Capability: "greet"})
		require.NoError(t, err)
		assert.Equal(t, "hello", res)
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		_, err := runner.Invoke(context.Background(), domain.ToolCall{Capability: "hacker_script"})
		f := domain.AsFault(err, domain.FaultToolError)
		require.NotNil(t, f)
		assert.Equal(t, domain.CodeNotFound, f.Code)
		assert.Contains(t, f.Message, "not registered")
	})

	t.Run("Passes Arguments via Env Vars", func(t *testing.T) {
		res, err := runner.Invoke(context.Background(), domain.ToolCall{
			Capability: "echo_env",
			Args:       map[string]any{"msg": "SecretMessage"},
		})
		require.NoError(t, err)
		assert.Equal(t, "SecretMessage", res)
	})

	t.Run("Passes Arguments as JSON on Stdin", func(t *testing.T) {
		res, err := runner.Invoke(context.Background(), domain.ToolCall{
			Capability: "echo_stdin",
			Args:       map[string]any{"table": "stg_orders", "limit": 2},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"table": "stg_orders", "limit": float64(2)}, res)
	})

	t.Run("Non-zero Exit Is A Tool Fault", func(t *testing.T) {
		_, err := runner.Invoke(context.Background(), domain.ToolCall{Capability: "fail"})
		f := domain.AsFault(err, domain.FaultToolError)
		require.NotNil(t, f)
		assert.Equal(t, domain.CodeRemote, f.Code)
		assert.Contains(t, f.Message, "broken")
	})
}

func TestRunner_Timeout(t *testing.T) {
	skipOnWindows(t)

	runner := NewRunner(WithRegistry(map[string]ToolSpec{
		"slow": {Command: "sleep", Args: []string{"5"}, Timeout: 50 * time.Millisecond},
	}))

	start := time.Now()
	_, err := runner.Invoke(context.Background(), domain.ToolCall{Capability: "slow"})
	f := domain.AsFault(err, domain.FaultToolError)
	require.NotNil(t, f)
	assert.Equal(t, domain.CodeTimeout, f.Code)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - name: list_models
    command: ls
    args: ["models"]
    description: List dbt models
    timeout: 2s
    parameters:
      type: object
  - command: ignored
`), 0o644))

	tools, err := LoadTools(path)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, 2*time.Second, tools["list_models"].Timeout)

	runner := NewRunner(WithRegistry(tools))
	caps, err := runner.ListCapabilities(context.Background())
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, "list_models", caps[0].Name)
	assert.Equal(t, "List dbt models", caps[0].Description)
	assert.Equal(t, "object", caps[0].Parameters["type"])

	_, err = LoadTools(filepath.Join(dir, "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte("tools:\n  - name: bad\n"), 0o644))
	_, err = LoadTools(path)
	assert.ErrorContains(t, err, "command is required")

	require.NoError(t, os.WriteFile(path, []byte("tools:\n  - {name: a, command: ls}\n  - {name: a, command: pwd}\n"), 0o644))
	_, err = LoadTools(path)
	assert.ErrorContains(t, err, "declared twice")
}

func TestLoadTools_JSONAndEnvExpansion(t *testing.T) {
	t.Setenv("DBT_TARGET", "prod")
	path := filepath.Join(t.TempDir(), "tools.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tools":[{"name":"compile","command":"dbt","args":["compile"],"env":{"TARGET":"${DBT_TARGET}"}}]}`), 0o644))

	tools, err := LoadTools(path)
	require.NoError(t, err)
	require.Contains(t, tools, "compile")
	assert.Equal(t, []string{"compile"}, tools["compile"].Args)
	assert.Equal(t, "prod", tools["compile"].Environment["TARGET"])
}
