package registry_test

import (
	"context"
	"testing"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Invoke(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("echo", func(ctx context.Context, args map[string]any) (any, error) {
		return args["text"], nil
	})

	out, err := reg.Invoke(context.Background(), domain.ToolCall{
		Capability: "echo",
		Args:       map[string]any{"text": "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestRegistry_UnknownCapability(t *testing.T) {
	reg := registry.NewRegistry()

	_, err := reg.Invoke(context.Background(), domain.ToolCall{Capability: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeNotFound})
	assert.Contains(t, err.Error(), "missing")
}

func TestRegistry_ListCapabilities(t *testing.T) {
	reg := registry.NewRegistry()
	reg.RegisterCapability(domain.Capability{Name: "b", Description: "second"}, nil)
	reg.Register("a", nil)

	caps, err := reg.ListCapabilities(context.Background())
	require.NoError(t, err)
	require.Len(t, caps, 2)
	assert.Equal(t, "a", caps[0].Name)
	assert.Equal(t, "second", caps[1].Description)
}
