package dbtmigration

import (
	"context"
	"testing"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrompts_MeetRequirements(t *testing.T) {
	lib := DefaultPrompts()
	for _, req := range PromptRequirements() {
		t.Run(req.Name, func(t *testing.T) {
			text, err := lib.Lookup(context.Background(), req.Name)
			require.NoError(t, err)
			assert.NoError(t, req.Check(text))
		})
	}
}

func TestDefaultPrompts_SummaryCarriesEveryInput(t *testing.T) {
	body, err := DefaultPrompts().Lookup(context.Background(), PromptSummarize)
	require.NoError(t, err)

	s := domain.NewState(map[string]any{FieldPIIColumns: []string{"email"}})
	inputs := summaryInputs(s)
	assert.Empty(t, prompt.Missing(body, inputs))
	for key := range inputs {
		assert.Contains(t, body, "{"+key+"}")
	}
	assert.Contains(t, body, FieldGeneratedModel)
	assert.Contains(t, body, FieldGeneratedSchema)

	rendered := prompt.Render(body, inputs)
	assert.Contains(t, rendered, "PII columns that must stay masked: email")
}

func TestPromptRequirement_Check(t *testing.T) {
	req := PromptRequirement{
		Name:     "summary",
		Required: []string{"a", "b"},
		Allowed:  []string{"c"},
		Mentions: []string{"out_key"},
	}

	assert.NoError(t, req.Check("{a} {b} {c} reply with out_key"))

	err := req.Check("{a} {d}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing placeholder {b}")
	assert.Contains(t, err.Error(), "unknown placeholder {d}")
	assert.Contains(t, err.Error(), `does not mention "out_key"`)
}
