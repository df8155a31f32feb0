package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meshed/agentgraph"
	"github.com/meshed/agentgraph/internal/logging"
	"github.com/meshed/agentgraph/pkg/domain"
	"golang.org/x/sync/singleflight"
)

// Route points a capability at a tool of a named server.
type Route struct {
	Server string
	Tool   string
}

// Dialer opens a session to the server called name at url.
type Dialer func(ctx context.Context, name, url string) (*client.Client, error)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithRoutes maps capability names onto server tools.
func WithRoutes(routes map[string]Route) ClientOption {
	return func(c *Client) {
		for k, v := range routes {
			c.routes[k] = v
		}
	}
}

// WithDialer replaces the streamable HTTP dialer, e.g. with an in-process client.
func WithDialer(d Dialer) ClientOption {
	return func(c *Client) {
		c.dial = d
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client is a tool adapter over one or more MCP servers.
//
// A capability is resolved, in order, through the configured routes, as
// "server/tool", or as a tool name when only one server is configured. Sessions are
// opened lazily and reused.
type Client struct {
	servers map[string]string
	routes  map[string]Route
	dial    Dialer
	logger  *slog.Logger

	mu         sync.Mutex
	sessions   map[string]*client.Client
	connecting singleflight.Group
}

// NewClient creates an MCP tool adapter for the servers map (name to URL).
func NewClient(servers map[string]string, opts ...ClientOption) (*Client, error) {
	if len(servers) == 0 {
		return nil, errors.New("no MCP servers configured")
	}
	c := &Client{
		servers:  make(map[string]string, len(servers)),
		routes:   make(map[string]Route),
		dial:     dialStreamable,
		logger:   logging.NewNop(),
		sessions: make(map[string]*client.Client),
	}
	for name, url := range servers {
		if strings.TrimSpace(url) != "" {
			c.servers[name] = url
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	for capability, r := range c.routes {
		if _, ok := c.servers[r.Server]; !ok {
			return nil, fmt.Errorf("capability %q routes to unknown server %q", capability, r.Server)
		}
	}
	return c, nil
}

func dialStreamable(ctx context.Context, name, url string) (*client.Client, error) {
	return client.NewStreamableHttpClient(url)
}

// Invoke implements ports.ToolAdapter.
func (c *Client) Invoke(ctx context.Context, call domain.ToolCall) (any, error) {
	route, err := c.resolve(call.Capability)
	if err != nil {
		return nil, err
	}

	session, err := c.session(ctx, route.Server)
	if err != nil {
		return nil, err
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = route.Tool
	req.Params.Arguments = call.Args

	c.logger.Debug("Calling MCP tool", "server", route.Server, "tool", route.Tool)
	res, err := session.CallTool(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.drop(route.Server)
		return nil, &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeUnavailable, Message: fmt.Sprintf("%s/%s: %v", route.Server, route.Tool, err)}
	}
	if res.IsError {
		return nil, &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeRemote, Message: fmt.Sprintf("%s/%s: %s", route.Server, route.Tool, textOf(res))}
	}
	return decodeResult(res), nil
}

// ListCapabilities implements ports.CapabilityLister.
// Tool schemas are returned with every "additionalProperties" key removed.
func (c *Client) ListCapabilities(ctx context.Context) ([]domain.Capability, error) {
	reverse := make(map[Route]string, len(c.routes))
	for name, r := range c.routes {
		reverse[r] = name
	}

	var caps []domain.Capability
	for _, server := range c.serverNames() {
		session, err := c.session(ctx, server)
		if err != nil {
			c.logger.Warn("Skipping unreachable MCP server", "server", server, "err", err)
			continue
		}
		res, err := session.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			c.logger.Warn("Failed to list MCP tools", "server", server, "err", err)
			continue
		}
		for _, tool := range res.Tools {
			name, ok := reverse[Route{Server: server, Tool: tool.Name}]
			if !ok {
				name = server + "/" + tool.Name
			}
			caps = append(caps, domain.Capability{
				Name:        name,
				Description: tool.Description,
				Parameters:  schemaOf(tool),
			})
		}
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Name < caps[j].Name })
	return caps, nil
}

// Close terminates every open session.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for name, s := range c.sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		delete(c.sessions, name)
	}
	return errors.Join(errs...)
}

func (c *Client) resolve(capability string) (Route, error) {
	if r, ok := c.routes[capability]; ok {
		return r, nil
	}
	if server, tool, ok := strings.Cut(capability, "/"); ok {
		if _, known := c.servers[server]; known && tool != "" {
			return Route{Server: server, Tool: tool}, nil
		}
	}
	if len(c.servers) == 1 {
		for server := range c.servers {
			return Route{Server: server, Tool: capability}, nil
		}
	}
	return Route{}, &domain.Fault{
		Kind:    domain.FaultToolError,
		Code:    domain.CodeNotFound,
		Message: fmt.Sprintf("%v: %s", domain.ErrUnknownCapability, capability),
	}
}

// session returns the open session for server, connecting on first use.
// Concurrent callers for the same server share one connection attempt; other
// servers are never blocked by it.
func (c *Client) session(ctx context.Context, server string) (*client.Client, error) {
	c.mu.Lock()
	s, ok := c.sessions[server]
	c.mu.Unlock()
	if ok {
		return s, nil
	}

	url, ok := c.servers[server]
	if !ok {
		return nil, &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeNotFound, Message: "unknown MCP server " + server}
	}

	v, err, _ := c.connecting.Do(server, func() (any, error) {
		c.mu.Lock()
		existing, ok := c.sessions[server]
		c.mu.Unlock()
		if ok {
			return existing, nil
		}

		s, err := c.connect(ctx, server, url)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.sessions[server] = s
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*client.Client), nil
}

func (c *Client) connect(ctx context.Context, server, url string) (*client.Client, error) {
	s, err := c.dial(ctx, server, url)
	if err != nil {
		return nil, &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeUnavailable, Message: fmt.Sprintf("connect %s: %v", server, err)}
	}
	if err := s.Start(ctx); err != nil {
		_ = s.Close()
		return nil, &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeUnavailable, Message: fmt.Sprintf("start %s: %v", server, err)}
	}

	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: "agentgraph", Version: agentgraph.Version}
	if _, err := s.Initialize(ctx, init); err != nil {
		_ = s.Close()
		return nil, &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeUnavailable, Message: fmt.Sprintf("initialize %s: %v", server, err)}
	}

	c.logger.Debug("MCP session opened", "server", server)
	return s, nil
}

// drop forgets a session after a transport failure so the next call reconnects.
func (c *Client) drop(server string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[server]; ok {
		_ = s.Close()
		delete(c.sessions, server)
	}
}

func (c *Client) serverNames() []string {
	names := make([]string, 0, len(c.servers))
	for name := range c.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func textOf(res *mcp.CallToolResult) string {
	var parts []string
	for _, content := range res.Content {
		if t, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// decodeResult prefers structured content, then JSON text, then raw text.
func decodeResult(res *mcp.CallToolResult) any {
	if res.StructuredContent != nil {
		return res.StructuredContent
	}
	text := textOf(res)
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v
	}
	return text
}

func schemaOf(tool mcp.Tool) map[string]any {
	var raw []byte
	if len(tool.RawInputSchema) > 0 {
		raw = tool.RawInputSchema
	} else {
		b, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil
		}
		raw = b
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil
	}
	cleaned, _ := StripAdditionalProperties(schema).(map[string]any)
	return cleaned
}

// StripAdditionalProperties removes every "additionalProperties" key from nested
// maps and slices. Other values are returned unchanged.
func StripAdditionalProperties(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if k == "additionalProperties" {
				continue
			}
			out[k] = StripAdditionalProperties(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = StripAdditionalProperties(val)
		}
		return out
	}
	return v
}
