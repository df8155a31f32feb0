package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meshed/agentgraph"
	"github.com/meshed/agentgraph/internal/logging"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
)

// RunResponse aligns with the OpenAPI schema and provides a unified structure across adapters.
type RunResponse struct {
	RunID    string         `json:"run_id" jsonschema_description:"Identifier of the run"`
	Workflow string         `json:"workflow" jsonschema_description:"Name of the workflow"`
	Steps    int            `json:"steps" jsonschema_description:"Number of executed steps"`
	Fault    *domain.Fault  `json:"fault,omitempty" jsonschema_description:"Set when the run ended on a fault"`
	Fields   map[string]any `json:"fields" jsonschema_description:"Final workflow fields"`
}

// Server wraps a WorkflowService and exposes it as an MCP Server.
type Server struct {
	service   ports.WorkflowService
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(service ports.WorkflowService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		service:   service,
		mcpServer: server.NewMCPServer("agentgraph-mcp", agentgraph.Version),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts a streamable HTTP server on addr until ctx is done.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.NewStreamableHTTPServer(s.mcpServer),
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (HTTP)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_workflows",
		mcp.WithDescription("List the workflows that can be started."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(s.service.Workflows())
	})

	runTool := mcp.NewTool("run_workflow",
		mcp.WithDescription("Run a workflow to completion and return its final fields and fault."),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow name")),
		mcp.WithString("request", mcp.Description("Natural language request recorded as the first human message")),
		mcp.WithString("fields", mcp.Description("JSON object of initial fields (optional)")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Fetch the stored record of a finished run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run identifier")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("run_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		record, err := s.service.Runs().Load(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(record)
	})

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Render a workflow as a Mermaid flowchart."),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow name")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("workflow")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		chart, err := s.service.Graph(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(chart), nil
	})
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (RunResponse, error) {
	name, _ := args["workflow"].(string)
	text, _ := args["request"].(string)

	fields := map[string]any{}
	if raw, ok := args["fields"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return RunResponse{}, fmt.Errorf("fields must be a JSON object: %w", err)
		}
	}

	record, err := s.service.Start(ctx, name, text, fields)
	if err != nil {
		s.logger.Warn("MCP run rejected", "workflow", name, "err", err)
		return RunResponse{}, err
	}
	return RunResponse{
		RunID:    record.ID,
		Workflow: record.Workflow,
		Steps:    record.Steps,
		Fault:    record.Fault(),
		Fields:   record.Final.Fields,
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("agentgraph://workflows", "Registered Workflows",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.service.Workflows())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "agentgraph://workflows",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
