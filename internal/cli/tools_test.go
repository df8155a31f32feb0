package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/meshed/agentgraph/pkg/adapters/memory"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolChain_Invoke(t *testing.T) {
	first := registry.NewRegistry()
	first.Register("local", func(ctx context.Context, args map[string]any) (any, error) { return "first", nil })
	second := memory.NewTools().
		Returns("local", "shadowed").
		Returns("remote", "second").
		Fails("broken", &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeRemote, Message: "boom"})
	chain := toolChain{first, second}

	got, err := chain.Invoke(context.Background(), domain.ToolCall{Capability: "local"})
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	got, err = chain.Invoke(context.Background(), domain.ToolCall{Capability: "remote"})
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	_, err = chain.Invoke(context.Background(), domain.ToolCall{Capability: "broken"})
	f := domain.AsFault(err, domain.FaultToolError)
	assert.Equal(t, domain.CodeRemote, f.Code)

	_, err = toolChain{}.Invoke(context.Background(), domain.ToolCall{Capability: "x"})
	assert.True(t, isUnknownCapability(err))
}

func TestToolChain_ListCapabilities(t *testing.T) {
	first := registry.NewRegistry()
	first.RegisterCapability(domain.Capability{Name: "b", Description: "local"}, nil)
	second := registry.NewRegistry()
	second.RegisterCapability(domain.Capability{Name: "b", Description: "remote"}, nil)
	second.RegisterCapability(domain.Capability{Name: "a"}, nil)

	caps, err := toolChain{first, second}.ListCapabilities(context.Background())
	require.NoError(t, err)
	require.Len(t, caps, 2)
	assert.Equal(t, "a", caps[0].Name)
	assert.Equal(t, "local", caps[1].Description)
}

func TestIsUnknownCapability(t *testing.T) {
	assert.False(t, isUnknownCapability(nil))
	assert.False(t, isUnknownCapability(errors.New("unknown capability")))
	assert.False(t, isUnknownCapability(&domain.Fault{Code: domain.CodeNotFound, Message: "404 File Not Found"}))
}
