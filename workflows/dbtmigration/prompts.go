package dbtmigration

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/meshed/agentgraph/pkg/prompt"
)

//go:embed prompts.md
var defaultPrompts string

// DefaultPrompts returns the prompt library shipped with the workflow.
func DefaultPrompts() *prompt.Sections {
	return prompt.NewSections("dbtmigration/prompts.md", defaultPrompts)
}

// summaryKeys are the fields rendered into the summary prompt.
var summaryKeys = []string{
	FieldStagingTable,
	FieldStagingLogic,
	FieldRawLogic,
	FieldDPXLogic,
	FieldS3Path,
	FieldStagingSchema,
	FieldPIIColumns,
}

// PromptRequirement describes what a prompt section must contain for the node
// that renders it.
type PromptRequirement struct {
	Name string
	// Required placeholders must all appear in the template.
	Required []string
	// Allowed lists the other placeholders the node can fill.
	Allowed []string
	// Mentions are literal strings the template must contain.
	Mentions []string
}

// Check reports every way text fails the requirement.
func (r PromptRequirement) Check(text string) error {
	placeholders := prompt.Placeholders(text)

	var problems []string
	for _, key := range r.Required {
		if !slices.Contains(placeholders, key) {
			problems = append(problems, fmt.Sprintf("missing placeholder {%s}", key))
		}
	}
	for _, key := range placeholders {
		if !slices.Contains(r.Required, key) && !slices.Contains(r.Allowed, key) {
			problems = append(problems, fmt.Sprintf("unknown placeholder {%s}", key))
		}
	}
	for _, m := range r.Mentions {
		if !strings.Contains(text, m) {
			problems = append(problems, fmt.Sprintf("does not mention %q", m))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("prompt %q: %s", r.Name, strings.Join(problems, "; "))
}

// PromptRequirements lists the prompts the workflow looks up, in the order
// the nodes use them.
func PromptRequirements() []PromptRequirement {
	return []PromptRequirement{
		{
			Name:    PromptSteps,
			Allowed: []string{FieldMappingSheetID, FieldPIISheetID},
		},
		{
			Name:     PromptExtract,
			Required: []string{"user_text"},
		},
		{
			Name:     PromptSummarize,
			Required: summaryKeys,
			Mentions: []string{FieldGeneratedModel, FieldGeneratedSchema},
		},
	}
}
