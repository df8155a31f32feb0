package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestState_OperationsReturnNewSnapshots(t *testing.T) {
	base := domain.NewState(map[string]any{"topic": "X"}).WithClock(fixedClock())

	withMsg := base.Append(domain.RoleHuman, domain.KindText, "hello")
	withField := withMsg.Set("extracted", "X")

	assert.Empty(t, base.Trace, "base trace must not change")
	assert.Len(t, withMsg.Trace, 1)
	assert.Len(t, withField.Trace, 1)

	_, ok := withMsg.Get("extracted")
	assert.False(t, ok, "field set on a later snapshot must not leak backwards")

	v, ok := withField.Get("extracted")
	require.True(t, ok)
	assert.Equal(t, "X", v)
}

func TestState_ConcurrentReferencesDoNotDiverge(t *testing.T) {
	base := domain.NewState(nil).Append(domain.RoleSystem, domain.KindText, "first")

	// Two appends on the same parent must not share a backing array.
	a := base.Append(domain.RoleSystem, domain.KindText, "a")
	b := base.Append(domain.RoleSystem, domain.KindText, "b")

	require.Len(t, a.Trace, 2)
	require.Len(t, b.Trace, 2)
	assert.Equal(t, "a", a.Trace[1].Content)
	assert.Equal(t, "b", b.Trace[1].Content)
	assert.Len(t, base.Trace, 1)
}

func TestState_GetAbsentNeverPanics(t *testing.T) {
	var nilState *domain.State
	v, ok := nilState.Get("missing")
	assert.Nil(t, v)
	assert.False(t, ok)

	s := domain.NewState(nil)
	_, ok = s.GetString("missing")
	assert.False(t, ok)
	assert.False(t, s.Has("missing"))
}

func TestState_Has(t *testing.T) {
	s := domain.NewState(map[string]any{
		"empty":     "",
		"nil":       nil,
		"list":      []string{},
		"value":     "x",
		"zero":      0,
		"populated": map[string]any{"a": 1},
	})

	assert.False(t, s.Has("empty"))
	assert.False(t, s.Has("nil"))
	assert.False(t, s.Has("list"))
	assert.True(t, s.Has("value"))
	assert.True(t, s.Has("zero"))
	assert.True(t, s.Has("populated"))
}

func TestState_GetStringCoerces(t *testing.T) {
	s := domain.NewState(map[string]any{"id": 42, "name": "orders"})

	id, ok := s.GetString("id")
	require.True(t, ok)
	assert.Equal(t, "42", id)

	name, ok := s.GetString("name")
	require.True(t, ok)
	assert.Equal(t, "orders", name)
}

func TestState_CloneIsDeep(t *testing.T) {
	nested := map[string]any{"inner": []any{"a"}}
	s := domain.NewState(map[string]any{"doc": nested})

	clone := s.Clone()
	doc, _ := clone.Get("doc")
	doc.(map[string]any)["inner"] = []any{"mutated"}

	orig, _ := s.Get("doc")
	assert.Equal(t, []any{"a"}, orig.(map[string]any)["inner"])
}

func TestState_NewStateCopiesInput(t *testing.T) {
	input := map[string]any{"topic": "X"}
	s := domain.NewState(input)
	input["topic"] = "Y"

	v, _ := s.GetString("topic")
	assert.Equal(t, "X", v)
}

func TestState_FaultAndRecover(t *testing.T) {
	s := domain.NewState(nil).WithCursor("fetch").WithClock(fixedClock())

	failed := s.WithFault(domain.NewFault(domain.FaultToolError, "connection refused"))
	require.NotNil(t, failed.Fault)
	assert.Equal(t, "fetch", failed.Fault.Node)
	assert.Equal(t, domain.KindFault, failed.Trace[len(failed.Trace)-1].Kind)
	assert.Nil(t, s.Fault)

	recovered := failed.Recover("retrying with defaults")
	assert.Nil(t, recovered.Fault)
	last := recovered.Trace[len(recovered.Trace)-1]
	assert.Equal(t, domain.KindRecovered, last.Kind)
	assert.Contains(t, last.Content, "connection refused")
	assert.Len(t, recovered.Trace, 2)
}

func TestState_AppendFillsTimestampAndNode(t *testing.T) {
	clock := fixedClock()
	s := domain.NewState(nil).WithCursor("extract").WithClock(clock)

	s = s.AppendMessage(domain.SystemMessage("note"))
	msg := s.Trace[0]
	assert.Equal(t, clock(), msg.Timestamp)
	assert.Equal(t, "extract", msg.Node)
}

func TestAsFault(t *testing.T) {
	t.Run("deadline becomes timeout code", func(t *testing.T) {
		f := domain.AsFault(fmt.Errorf("call: %w", context.DeadlineExceeded), domain.FaultModelError)
		assert.Equal(t, domain.FaultModelError, f.Kind)
		assert.Equal(t, domain.CodeTimeout, f.Code)
	})

	t.Run("wrapped fault keeps code and takes kind", func(t *testing.T) {
		inner := &domain.Fault{Kind: domain.FaultModelError, Code: domain.CodeNotFound, Message: "no such tool"}
		f := domain.AsFault(fmt.Errorf("invoke: %w", inner), domain.FaultToolError)
		assert.Equal(t, domain.FaultToolError, f.Kind)
		assert.Equal(t, domain.CodeNotFound, f.Code)
		assert.Equal(t, "no such tool", f.Message)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, domain.AsFault(nil, domain.FaultToolError))
	})

	t.Run("errors.Is matches by kind", func(t *testing.T) {
		var err error = &domain.Fault{Kind: domain.FaultContractViolation, Message: "missing key"}
		assert.True(t, errors.Is(err, &domain.Fault{Kind: domain.FaultContractViolation}))
		assert.False(t, errors.Is(err, &domain.Fault{Kind: domain.FaultToolError}))
	})
}

func TestCallRecord_Record(t *testing.T) {
	s := domain.NewState(nil).WithCursor("query").WithClock(fixedClock())

	ok := domain.CallRecord{
		Tool:    &domain.ToolCall{Capability: "sql-query", Args: map[string]any{"sql": "select 1"}},
		Result:  []any{map[string]any{"x": 1}},
		Latency: 5 * time.Millisecond,
	}
	s = ok.Record(s)
	require.Len(t, s.Trace, 2)
	assert.Equal(t, domain.KindToolCall, s.Trace[0].Kind)
	assert.Equal(t, `{"sql":"select 1"}`, s.Trace[0].Content)
	assert.Equal(t, domain.KindToolResult, s.Trace[1].Kind)
	assert.Equal(t, "sql-query", s.Trace[1].Capability)
	assert.Equal(t, 5*time.Millisecond, s.Trace[1].Latency)

	failed := domain.CallRecord{
		Model: &domain.ModelCall{Prompt: "extract the table"},
		Fault: &domain.Fault{Kind: domain.FaultModelError, Code: domain.CodeTimeout, Message: "deadline exceeded"},
	}
	s = failed.Record(s)
	require.Len(t, s.Trace, 4)
	assert.Equal(t, domain.KindModelCall, s.Trace[2].Kind)
	assert.Equal(t, domain.KindModelError, s.Trace[3].Kind)
	assert.Contains(t, s.Trace[3].Content, "timeout")
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) { calls = append(calls, "b") },
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) { calls = append(calls, "finish") },
	}

	merged := a.Merge(b)
	merged.OnNodeEnter(context.Background(), &domain.NodeEvent{})
	merged.OnRunFinish(context.Background(), &domain.RunEvent{})
	assert.Nil(t, merged.OnToolCall)
	assert.Equal(t, []string{"a", "b", "finish"}, calls)
}
