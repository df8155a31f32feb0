package dbtmigration

import (
	"errors"
	"strings"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/dsl"
	"github.com/meshed/agentgraph/pkg/graph"
	"github.com/meshed/agentgraph/pkg/nodekit"
	"github.com/meshed/agentgraph/pkg/ports"
	"github.com/meshed/agentgraph/pkg/schema"
)

// Name is the name the workflow is registered under.
const Name = "dbt-migration"

// Config holds the data sources and output location of the workflow.
type Config struct {
	MappingSheet   string
	PIISheet       string
	ClickHouseRepo string
	TrinoRepo      string
	// Ref is the branch of the ClickHouse repository. Defaults to main.
	Ref string
	// TrinoRef is the branch of the DPX repository. Defaults to production.
	TrinoRef  string
	S3BaseURL string
	// OutputDir receives the generated files. Defaults to output_files.
	OutputDir string

	ToolDeadline  time.Duration
	ModelDeadline time.Duration
	ModelRetry    nodekit.RetryConfig
	MaxSteps      int
}

// Deps are the adapters the nodes call.
type Deps struct {
	Tools ports.ToolAdapter
	Model ports.ModelAdapter
	// Prompts defaults to DefaultPrompts.
	Prompts ports.PromptLibrary
}

// Contract is the shape the summary model reply must have.
func Contract() schema.Schema {
	return schema.Schema{
		FieldGeneratedModel:  schema.NonEmptyString(),
		FieldGeneratedSchema: schema.NonEmptyString(),
	}
}

// New builds the workflow.
func New(cfg Config, deps Deps) (*graph.Workflow, error) {
	if deps.Tools == nil {
		return nil, errors.New("dbt migration requires a tool adapter")
	}
	if deps.Model == nil {
		return nil, errors.New("dbt migration requires a model adapter")
	}
	if deps.Prompts == nil {
		deps.Prompts = DefaultPrompts()
	}
	if cfg.Ref == "" {
		cfg.Ref = "main"
	}
	if cfg.TrinoRef == "" {
		cfg.TrinoRef = "production"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output_files"
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = graph.DefaultMaxSteps
	}

	n := &nodes{cfg: cfg, deps: deps}
	lastToken := nodekit.LastToken()

	b := dsl.New(Name).
		Describe("Rewrite a ClickHouse staging dbt model and its schema for DPX").
		Start(NodeOrchestrator).
		MaxSteps(cfg.MaxSteps)

	b.Func(NodeOrchestrator, n.orchestrate).
		Branch(graph.Missing(FieldStagingTable), NodeExtract).
		Branch(graph.Missing(FieldMappingData), NodeMapping).
		Branch(graph.Missing(FieldPIIData), NodePII).
		Branch(missingAny(FieldStagingLogic, FieldRawLogic, FieldDPXLogic), NodeDBTLogic).
		Branch(graph.Missing(FieldS3Path), NodeS3Path).
		Branch(graph.Missing(FieldStagingSchema), NodeSchema).
		Branch(missingAny(FieldGeneratedModel, FieldGeneratedSchema), NodeSummarize).
		Go(NodeWriteOutput)

	b.Add(NodeExtract, &nodekit.Extraction{
		Model:    deps.Model,
		Prompt:   nodekit.Named(deps.Prompts, PromptExtract),
		Target:   FieldStagingTable,
		Deadline: cfg.ModelDeadline,
		Retry:    cfg.ModelRetry,
		Inputs: func(s *domain.State) map[string]any {
			return map[string]any{"user_text": nodekit.HumanText(s)}
		},
		Fallback: &lastToken,
	}).Go(NodeOrchestrator)

	b.Func(NodeMapping, n.queryMapping).Go(NodeOrchestrator)
	b.Func(NodePII, n.queryPII).Go(NodeOrchestrator)
	b.Func(NodeDBTLogic, n.fetchDBTLogic).Go(NodeOrchestrator)
	b.Func(NodeS3Path, n.extractS3Path).Go(NodeOrchestrator)
	b.Func(NodeSchema, n.fetchSchema).Go(NodeOrchestrator)

	b.Add(NodeSummarize, &nodekit.Aggregation{
		Model:    deps.Model,
		Prompt:   nodekit.Named(deps.Prompts, PromptSummarize),
		Contract: Contract(),
		Deadline: cfg.ModelDeadline,
		Retry:    cfg.ModelRetry,
		Inputs:   summaryInputs,
	}).
		Branch(hasAll(FieldGeneratedModel, FieldGeneratedSchema), NodeWriteOutput).
		Terminal()

	b.Func(NodeWriteOutput, n.writeOutput).Terminal()

	return b.Build()
}

func summaryInputs(s *domain.State) map[string]any {
	values := make(map[string]any, len(summaryKeys))
	for _, key := range summaryKeys {
		if key == FieldPIIColumns {
			values[key] = strings.Join(stringList(s, FieldPIIColumns), ", ")
			continue
		}
		v, _ := s.GetString(key)
		values[key] = v
	}
	return values
}

func missingAny(keys ...string) graph.Predicate {
	return graph.Check("no "+strings.Join(keys, "/"), func(s *domain.State) bool {
		for _, k := range keys {
			if !s.Has(k) {
				return true
			}
		}
		return false
	})
}

func hasAll(keys ...string) graph.Predicate {
	return graph.Check(strings.Join(keys, " & "), func(s *domain.State) bool {
		for _, k := range keys {
			if !s.Has(k) {
				return false
			}
		}
		return true
	})
}
