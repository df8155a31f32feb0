package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meshed/agentgraph"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServerClient(t *testing.T) *client.Client {
	t.Helper()
	b := dsl.New("echo").Describe("copies the request into a field")
	b.Func("echo", func(ctx context.Context, s *domain.State) *domain.State {
		return s.Set("echoed", s.MessagesByRole(domain.RoleHuman)[0].Content)
	}).Terminal()
	wf, err := b.Build()
	require.NoError(t, err)

	eng, err := agentgraph.New(
		agentgraph.WithWorkflows(wf),
		agentgraph.WithIDGenerator(func() string { return "run-1" }),
	)
	require.NoError(t, err)

	c, err := client.NewInProcessClient(NewServer(eng, nil).MCPServer())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: "test", Version: "0"}
	_, err = c.Initialize(context.Background(), init)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)
	return res
}

func TestServer_ListsTools(t *testing.T) {
	c := newServerClient(t)

	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_workflows", "run_workflow", "get_run", "get_graph"}, names)
}

func TestServer_RunThenFetch(t *testing.T) {
	c := newServerClient(t)

	res := callTool(t, c, "run_workflow", map[string]any{
		"workflow": "echo",
		"request":  "migrate orders",
		"fields":   `{"topic":"orders"}`,
	})
	require.False(t, res.IsError, textOf(res))

	var run RunResponse
	require.NoError(t, json.Unmarshal([]byte(textOf(res)), &run))
	assert.Equal(t, "run-1", run.RunID)
	assert.Equal(t, 1, run.Steps)
	assert.Nil(t, run.Fault)
	assert.Equal(t, "migrate orders", run.Fields["echoed"])
	assert.Equal(t, "orders", run.Fields["topic"])

	got := callTool(t, c, "get_run", map[string]any{"run_id": "run-1"})
	require.False(t, got.IsError, textOf(got))
	var record domain.RunRecord
	require.NoError(t, json.Unmarshal([]byte(textOf(got)), &record))
	assert.Equal(t, "echo", record.Workflow)
}

func TestServer_RunRejectsBadInput(t *testing.T) {
	c := newServerClient(t)

	res := callTool(t, c, "run_workflow", map[string]any{"workflow": "missing"})
	assert.True(t, res.IsError)

	res = callTool(t, c, "run_workflow", map[string]any{"workflow": "echo", "fields": "not json"})
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(res), "JSON object")

	res = callTool(t, c, "get_run", map[string]any{"run_id": "nope"})
	assert.True(t, res.IsError)
}

func TestServer_GraphAndListing(t *testing.T) {
	c := newServerClient(t)

	res := callTool(t, c, "get_graph", map[string]any{"workflow": "echo"})
	require.False(t, res.IsError)
	assert.Contains(t, textOf(res), "graph TD")

	res = callTool(t, c, "list_workflows", nil)
	require.False(t, res.IsError)
	assert.Contains(t, textOf(res), `"name":"echo"`)

	read := mcp.ReadResourceRequest{}
	read.Params.URI = "agentgraph://workflows"
	contents, err := c.ReadResource(context.Background(), read)
	require.NoError(t, err)
	require.Len(t, contents.Contents, 1)
	text, ok := contents.Contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, "copies the request")
}
