package nodekit_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meshed/agentgraph/pkg/adapters/memory"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/nodekit"
	"github.com/meshed/agentgraph/pkg/prompt"
	"github.com/meshed/agentgraph/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countKind(s *domain.State, kind domain.MessageKind) int {
	n := 0
	for _, m := range s.Trace {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

func TestExtraction_Success(t *testing.T) {
	model := memory.NewModel(" `stg_orders` \n")
	node := &nodekit.Extraction{
		Model:  model,
		Prompt: nodekit.Inline("Extract the table from: {request}"),
		Target: "table",
	}

	s := domain.NewState(nil).AppendMessage(domain.HumanMessage("migrate stg_orders please"))
	out := node.Execute(context.Background(), s)

	require.Nil(t, out.Fault)
	v, _ := out.GetString("table")
	assert.Equal(t, "stg_orders", v)
	assert.Equal(t, []string{"Extract the table from: migrate stg_orders please"}, model.Prompts())
	assert.Equal(t, 1, countKind(out, domain.KindModelCall))
	assert.Equal(t, 1, countKind(out, domain.KindModelResult))
}

func TestExtraction_FallbackAfterModelError(t *testing.T) {
	model := memory.NewModel().Then(memory.Response{Err: errors.New("quota exhausted")})
	fallback := nodekit.FromField("topic")
	node := &nodekit.Extraction{
		Model:    model,
		Prompt:   nodekit.Inline("What is the topic of {request}?"),
		Target:   "extracted",
		Fallback: &fallback,
	}

	s := domain.NewState(map[string]any{"topic": "X"})
	out := node.Execute(context.Background(), s)

	require.Nil(t, out.Fault)
	v, _ := out.GetString("extracted")
	assert.Equal(t, "X", v)
	assert.Equal(t, 1, countKind(out, domain.KindModelError))
}

func TestExtraction_NoFallbackSetsFault(t *testing.T) {
	model := memory.NewModel().Then(memory.Response{Err: errors.New("unreachable")})
	node := &nodekit.Extraction{Model: model, Prompt: nodekit.Inline("x"), Target: "out"}

	out := node.Execute(context.Background(), domain.NewState(nil).WithCursor("extract"))

	require.NotNil(t, out.Fault)
	assert.Equal(t, domain.FaultModelError, out.Fault.Kind)
	assert.Equal(t, "extract", out.Fault.Node)
	assert.False(t, out.Has("out"))
}

func TestExtraction_EmptyAnswerUsesLastToken(t *testing.T) {
	fallback := nodekit.LastToken()
	node := &nodekit.Extraction{
		Model:    memory.NewModel("   "),
		Prompt:   nodekit.Inline("{request}"),
		Target:   "table",
		Fallback: &fallback,
	}

	s := domain.NewState(nil).AppendMessage(domain.HumanMessage("please migrate `stg_payments`"))
	out := node.Execute(context.Background(), s)

	require.Nil(t, out.Fault)
	v, _ := out.GetString("table")
	assert.Equal(t, "stg_payments", v)
}

func TestExtraction_NamedPromptMissing(t *testing.T) {
	lib := memory.NewPrompts(map[string]string{})
	node := &nodekit.Extraction{
		Model:  memory.NewModel("never used"),
		Prompt: nodekit.Named(lib, "Extract Table"),
		Target: "table",
	}

	out := node.Execute(context.Background(), domain.NewState(nil))

	require.NotNil(t, out.Fault)
	assert.Equal(t, domain.FaultModelError, out.Fault.Kind)
	assert.Equal(t, domain.CodeNotFound, out.Fault.Code)
	assert.Contains(t, out.Fault.Message, prompt.ErrPromptNotFound.Error())
}

func TestAggregation_ContractViolation(t *testing.T) {
	node := &nodekit.Aggregation{
		Model:    memory.NewModel(`{"a":1}`),
		Prompt:   nodekit.Inline("combine {x}"),
		Contract: schema.Schema{"a": schema.Any(), "b": schema.Any()},
	}

	s := domain.NewState(map[string]any{"x": "input"})
	out := node.Execute(context.Background(), s)

	require.NotNil(t, out.Fault)
	assert.Equal(t, domain.FaultContractViolation, out.Fault.Kind)
	assert.Equal(t, s.Fields, out.Fields)
	require.Equal(t, 1, countKind(out, domain.KindContractViolation))
	for _, m := range out.Trace {
		if m.Kind == domain.KindContractViolation {
			assert.Contains(t, m.Content, `{"a":1}`)
		}
	}
}

func TestAggregation_WritesRenamedKeys(t *testing.T) {
	reply := "```json\n{\"generated_stg_dbt_model\": \"select 1\", \"generated_stg_schema_yaml\": \"version: 2\"}\n```"
	node := &nodekit.Aggregation{
		Model:  memory.NewModel(reply),
		Prompt: nodekit.Inline("summarize {table}"),
		Contract: schema.Schema{
			"generated_stg_dbt_model":   schema.NonEmptyString(),
			"generated_stg_schema_yaml": schema.NonEmptyString(),
		},
		Rename: map[string]string{"generated_stg_dbt_model": "model_sql"},
	}

	out := node.Execute(context.Background(), domain.NewState(map[string]any{"table": "stg_orders"}))

	require.Nil(t, out.Fault)
	sql, _ := out.GetString("model_sql")
	assert.Equal(t, "select 1", sql)
	yml, _ := out.GetString("generated_stg_schema_yaml")
	assert.Equal(t, "version: 2", yml)
	assert.False(t, out.Has("generated_stg_dbt_model"))
}

func TestAggregation_ModelErrorIsFault(t *testing.T) {
	node := &nodekit.Aggregation{
		Model:    memory.NewModel().Then(memory.Response{Err: errors.New("503")}),
		Prompt:   nodekit.Inline("p"),
		Contract: schema.Schema{"a": schema.Any()},
	}
	out := node.Execute(context.Background(), domain.NewState(nil))
	require.NotNil(t, out.Fault)
	assert.Equal(t, domain.FaultModelError, out.Fault.Kind)
}

func TestInvokeTool_TimeoutCode(t *testing.T) {
	tools := memory.NewTools().On("slow", memory.Response{Result: "late", Delay: time.Second})

	rec := nodekit.InvokeTool(context.Background(), tools, domain.ToolCall{Capability: "slow", Deadline: 10 * time.Millisecond})

	require.NotNil(t, rec.Fault)
	assert.Equal(t, domain.FaultToolError, rec.Fault.Kind)
	assert.Equal(t, domain.CodeTimeout, rec.Fault.Code)
}

func TestInvokeTool_NilAdapter(t *testing.T) {
	rec := nodekit.InvokeTool(context.Background(), nil, domain.ToolCall{Capability: "x"})
	require.NotNil(t, rec.Fault)
	assert.Equal(t, domain.CodeUnavailable, rec.Fault.Code)
}

func TestInvokeTool_EmitsHooks(t *testing.T) {
	var events []domain.EventType
	ctx := nodekit.WithRun(context.Background(), nodekit.RunInfo{
		RunID: "r1",
		Node:  "fetch",
		Hooks: domain.LifecycleHooks{
			OnToolCall:   func(_ context.Context, e *domain.ToolEvent) { events = append(events, e.Type) },
			OnToolReturn: func(_ context.Context, e *domain.ToolEvent) { events = append(events, e.Type) },
		},
	})
	tools := memory.NewTools().Returns("sql", []any{"row"})

	rec := nodekit.InvokeTool(ctx, tools, domain.ToolCall{Capability: "sql"})

	require.True(t, rec.OK())
	assert.Equal(t, []domain.EventType{domain.EventToolCall, domain.EventToolReturn}, events)
}

func TestInvokeTools_KeepsCallOrder(t *testing.T) {
	tools := memory.NewTools().
		On("a", memory.Response{Result: "A", Delay: 30 * time.Millisecond}).
		On("b", memory.Response{Result: "B"}).
		Fails("c", errors.New("down"))

	records := nodekit.InvokeTools(context.Background(), tools,
		domain.ToolCall{Capability: "a"},
		domain.ToolCall{Capability: "b"},
		domain.ToolCall{Capability: "c"},
	)

	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0].Result)
	assert.Equal(t, "B", records[1].Result)
	assert.NotNil(t, records[2].Fault)

	s := nodekit.RecordAll(domain.NewState(nil), records...)
	require.Len(t, s.Trace, 6)
	assert.Equal(t, "a", s.Trace[0].Capability)
	assert.Equal(t, "b", s.Trace[2].Capability)
	assert.Equal(t, domain.KindToolError, s.Trace[5].Kind)
}

func TestRetry(t *testing.T) {
	t.Run("stops on success", func(t *testing.T) {
		var calls atomic.Int32
		records := nodekit.Retry(context.Background(), nodekit.RetryConfig{MaxAttempts: 5}, func(context.Context) domain.CallRecord {
			if calls.Add(1) < 3 {
				return domain.CallRecord{Fault: &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeUnavailable}}
			}
			return domain.CallRecord{Result: "ok"}
		})
		assert.Len(t, records, 3)
		assert.True(t, nodekit.Last(records).OK())
	})

	t.Run("does not retry not found", func(t *testing.T) {
		records := nodekit.Retry(context.Background(), nodekit.RetryConfig{MaxAttempts: 5}, func(context.Context) domain.CallRecord {
			return domain.CallRecord{Fault: &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeNotFound}}
		})
		assert.Len(t, records, 1)
	})

	t.Run("zero attempts means one", func(t *testing.T) {
		records := nodekit.Retry(context.Background(), nodekit.RetryConfig{}, func(context.Context) domain.CallRecord {
			return domain.CallRecord{Fault: &domain.Fault{Kind: domain.FaultToolError}}
		})
		assert.Len(t, records, 1)
	})

	t.Run("canceled context stops", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		records := nodekit.Retry(ctx, nodekit.RetryConfig{MaxAttempts: 3, Backoff: time.Hour}, func(context.Context) domain.CallRecord {
			cancel()
			return domain.CallRecord{Fault: &domain.Fault{Kind: domain.FaultToolError}}
		})
		assert.Len(t, records, 1)
	})
}

func TestGuard(t *testing.T) {
	panicky := domain.NodeFunc(func(ctx context.Context, s *domain.State) *domain.State {
		panic("boom")
	})
	out := nodekit.Guard(panicky).Execute(context.Background(), domain.NewState(nil).WithCursor("bad"))
	require.NotNil(t, out.Fault)
	assert.Equal(t, domain.FaultNodePanic, out.Fault.Kind)
	assert.Contains(t, out.Fault.Message, "boom")

	nilNode := domain.NodeFunc(func(ctx context.Context, s *domain.State) *domain.State { return nil })
	out = nodekit.Guard(nilNode).Execute(context.Background(), domain.NewState(nil))
	require.NotNil(t, out.Fault)
	assert.Equal(t, domain.FaultNodePanic, out.Fault.Kind)
}

func TestCleanValue(t *testing.T) {
	assert.Equal(t, "stg_orders", nodekit.CleanValue("  `stg_orders`\n"))
	assert.Equal(t, "stg_orders", nodekit.CleanValue(`"stg_orders"`))
	assert.Equal(t, "", nodekit.CleanValue("``"))
}
