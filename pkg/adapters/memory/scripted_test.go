package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meshed/agentgraph/pkg/adapters/memory"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTools_QueueAndRepeat(t *testing.T) {
	tools := memory.NewTools().
		Returns("sheet", "first").
		Returns("sheet", "second")
	ctx := context.Background()

	for _, want := range []string{"first", "second", "second"} {
		got, err := tools.Invoke(ctx, domain.ToolCall{Capability: "sheet"})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Len(t, tools.Calls(), 3)
}

func TestTools_UnknownCapability(t *testing.T) {
	_, err := memory.NewTools().Invoke(context.Background(), domain.ToolCall{Capability: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeNotFound})
}

func TestTools_DelayHonorsContext(t *testing.T) {
	tools := memory.NewTools().On("slow", memory.Response{Result: "late", Delay: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := tools.Invoke(ctx, domain.ToolCall{Capability: "slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestModel_RulesBeforeQueue(t *testing.T) {
	model := memory.NewModel("queued").
		When("extract", memory.Response{Text: "stg_orders"}).
		When("broken", memory.Response{Err: errors.New("boom")})
	ctx := context.Background()

	out, err := model.Generate(ctx, domain.ModelCall{Prompt: "please extract the table"})
	require.NoError(t, err)
	assert.Equal(t, "stg_orders", out)

	out, err = model.Generate(ctx, domain.ModelCall{Prompt: "something else"})
	require.NoError(t, err)
	assert.Equal(t, "queued", out)

	_, err = model.Generate(ctx, domain.ModelCall{Prompt: "broken prompt"})
	assert.EqualError(t, err, "boom")

	assert.Len(t, model.Prompts(), 3)
}
