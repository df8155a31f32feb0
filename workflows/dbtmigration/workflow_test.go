package dbtmigration

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meshed/agentgraph"
	"github.com/meshed/agentgraph/pkg/adapters/memory"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stagingTable = "staging_prod_db_coredb_crm_owner_account"
	request      = "Get information about ClickHouse staging and DPX tables, including PII columns and dbt logic. Table: " + stagingTable

	extractMarker   = "return only the name of the ClickHouse staging table"
	summarizeMarker = "Rewrite the ClickHouse staging model"

	summaryReply = "```json\n{\"generated_stg_dbt_model\": \"select * from s3('https://s3.example/warehouse/crm/owner_account')\", \"generated_stg_schema_yaml\": \"version: 2\\nmodels: []\\n\"}\n```"
)

// fixture serves the spreadsheets, the catalog database and two repositories.
type fixture struct {
	files map[string]any
	fail  map[string]error
}

func newFixture() *fixture {
	raw := base64.StdEncoding.EncodeToString([]byte("select * from postgresql('crm', 'owner_account')"))
	files := map[string]any{}
	files["models/staging/crm/"+stagingTable+".sql"] = "select * from {{ ref('raw_crm_owner_account') }}"
	files["models/staging/crm/"+stagingTable+"_schema.yml"] = "version: 2\n"
	files["models/raw/crm/raw_crm_owner_account.sql"] = map[string]any{"encoding": "base64", "content": raw}
	files["models/lakehouse/crm/owner_account.sql"] = map[string]any{"content": "select id, email from crm.owner_account"}
	return &fixture{files: files, fail: map[string]error{}}
}

func (f *fixture) tools() *registry.Registry {
	reg := registry.NewRegistry()
	reg.Register(CapSheetQuery, func(ctx context.Context, args map[string]any) (any, error) {
		if err := f.fail[CapSheetQuery]; err != nil {
			return nil, err
		}
		switch args["spreadsheet_id"] {
		case "mapping-sheet":
			return []any{
				map[string]any{"clickhouse_stg_table": "staging_other", "dpx_table_id": 1.0},
				map[string]any{
					"clickhouse_stg_table": " " + stagingTable + " ",
					"clickhouse_raw_table": "raw_crm_owner_account",
					"dpx_catalog":          "lakehouse",
					"dpx_schema":           "crm",
					"dpx_table_name":       "owner_account",
					"dpx_table_id":         4711.0,
				},
			}, nil
		case "pii-sheet":
			return `[{"clickhouse_stg_table": "` + stagingTable + `", "stg_pii_columns": ["email", " phone "]}]`, nil
		}
		return []any{}, nil
	})
	reg.Register(CapSQLQuery, func(ctx context.Context, args map[string]any) (any, error) {
		if args["sql_query"] != "select fs_location from public.active_tables where table_id = '4711'" {
			return []any{}, nil
		}
		return []any{map[string]any{"fs_location": "/warehouse/crm/owner_account"}}, nil
	})
	reg.Register(CapRepoTree, func(ctx context.Context, args map[string]any) (any, error) {
		if err := f.fail[CapRepoTree+":"+args["path"].(string)]; err != nil {
			return nil, err
		}
		prefix := args["path"].(string) + "/"
		tree := []any{map[string]any{"type": "tree", "name": "crm", "path": prefix + "crm"}}
		for path := range f.files {
			if len(path) > len(prefix) && path[:len(prefix)] == prefix {
				tree = append(tree, map[string]any{"type": "blob", "name": filepath.Base(path), "path": path})
			}
		}
		return tree, nil
	})
	reg.Register(CapRepoFile, func(ctx context.Context, args map[string]any) (any, error) {
		content, ok := f.files[args["file_path"].(string)]
		if !ok {
			return nil, &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeRemote, Message: "404 File Not Found"}
		}
		return content, nil
	})
	return reg
}

func testConfig(t *testing.T) Config {
	return Config{
		MappingSheet:   "mapping-sheet",
		PIISheet:       "pii-sheet",
		ClickHouseRepo: "411",
		TrinoRepo:      "412",
		S3BaseURL:      "https://s3.example/",
		OutputDir:      filepath.Join(t.TempDir(), "output_files"),
		MaxSteps:       30,
	}
}

func newEngine(t *testing.T) *agentgraph.Engine {
	t.Helper()
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eng, err := agentgraph.New(
		agentgraph.WithClock(func() time.Time { return clock }),
		agentgraph.WithIDGenerator(func() string { return "run-1" }),
	)
	require.NoError(t, err)
	return eng
}

func run(t *testing.T, cfg Config, deps Deps) (*domain.RunRecord, []string) {
	t.Helper()
	wf, err := New(cfg, deps)
	require.NoError(t, err)

	var visited []string
	record, err := newEngine(t).Execute(context.Background(), wf, wf.Initial(request, nil), func(prev, next *domain.State) {
		visited = append(visited, next.Cursor)
	})
	require.NoError(t, err)
	return record, visited
}

func TestWorkflow_MigratesStagingModel(t *testing.T) {
	cfg := testConfig(t)
	model := memory.NewModel().
		When(extractMarker, memory.Response{Text: "`" + stagingTable + "`"}).
		When(summarizeMarker, memory.Response{Text: summaryReply})

	record, visited := run(t, cfg, Deps{Tools: newFixture().tools(), Model: model})

	require.Nil(t, record.Fault(), "unexpected fault: %v", record.Fault())
	assert.Equal(t, []string{
		NodeOrchestrator, NodeExtract,
		NodeOrchestrator, NodeMapping,
		NodeOrchestrator, NodePII,
		NodeOrchestrator, NodeDBTLogic,
		NodeOrchestrator, NodeS3Path,
		NodeOrchestrator, NodeSchema,
		NodeOrchestrator, NodeSummarize,
		NodeWriteOutput,
	}, visited)
	assert.Equal(t, 15, record.Steps)

	final := record.Final
	get := func(key string) string {
		v, _ := final.GetString(key)
		return v
	}
	assert.Equal(t, stagingTable, get(FieldStagingTable))
	assert.Equal(t, "4711", get(FieldDPXTableID))
	assert.Equal(t, "https://s3.example/warehouse/crm/owner_account", get(FieldS3Path))
	assert.Equal(t, "select * from postgresql('crm', 'owner_account')", get(FieldRawLogic))
	assert.Equal(t, "select id, email from crm.owner_account", get(FieldDPXLogic))
	assert.Equal(t, "version: 2\n", get(FieldStagingSchema))
	assert.Equal(t, []string{"email", "phone"}, stringList(final, FieldPIIColumns))

	sqlFile := filepath.Join(cfg.OutputDir, "dpx_"+stagingTable+".sql")
	yamlFile := filepath.Join(cfg.OutputDir, "dpx_"+stagingTable+"_schema.yaml")
	assert.Equal(t, []string{sqlFile, yamlFile}, stringList(final, FieldOutputFiles))

	sql, err := os.ReadFile(sqlFile)
	require.NoError(t, err)
	assert.Contains(t, string(sql), "s3('https://s3.example/warehouse/crm/owner_account')")
	yml, err := os.ReadFile(yamlFile)
	require.NoError(t, err)
	assert.Equal(t, "version: 2\nmodels: []\n", string(yml))

	prompts := model.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "PII columns that must stay masked: email, phone")
	assert.Contains(t, prompts[1], "select id, email from crm.owner_account")
}

func TestWorkflow_ExtractionFallsBackToLastToken(t *testing.T) {
	model := memory.NewModel().
		When(extractMarker, memory.Response{Err: errors.New("quota exhausted")}).
		When(summarizeMarker, memory.Response{Text: summaryReply})

	record, _ := run(t, testConfig(t), Deps{Tools: newFixture().tools(), Model: model})

	require.Nil(t, record.Fault())
	table, _ := record.Final.GetString(FieldStagingTable)
	assert.Equal(t, stagingTable, table)

	var modelErrors int
	for _, m := range record.Final.Trace {
		if m.Kind == domain.KindModelError {
			modelErrors++
		}
	}
	assert.Equal(t, 1, modelErrors)
}

func TestWorkflow_SummaryContractViolation(t *testing.T) {
	cfg := testConfig(t)
	model := memory.NewModel().
		When(extractMarker, memory.Response{Text: stagingTable}).
		When(summarizeMarker, memory.Response{Text: `{"generated_stg_dbt_model": "select 1"}`})

	record, visited := run(t, cfg, Deps{Tools: newFixture().tools(), Model: model})

	f := record.Fault()
	require.NotNil(t, f)
	assert.Equal(t, domain.FaultContractViolation, f.Kind)
	assert.Equal(t, NodeSummarize, f.Node)
	assert.Equal(t, NodeSummarize, visited[len(visited)-1], "the fault path ends the run")
	assert.False(t, record.Final.Has(FieldGeneratedModel))

	_, err := os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(err), "nothing is written")
}

func TestWorkflow_MappingNotFound(t *testing.T) {
	model := memory.NewModel().When(extractMarker, memory.Response{Text: "staging_unknown"})

	record, _ := run(t, testConfig(t), Deps{Tools: newFixture().tools(), Model: model})

	f := record.Fault()
	require.NotNil(t, f)
	assert.Equal(t, domain.FaultToolError, f.Kind)
	assert.Equal(t, domain.CodeNotFound, f.Code)
	assert.Equal(t, NodeMapping, f.Node)
	assert.Contains(t, f.Message, "staging_unknown")
}

func TestWorkflow_RepositoryFailureIsReported(t *testing.T) {
	fx := newFixture()
	fx.fail[CapRepoTree+":models/raw"] = errors.New("connection reset")
	model := memory.NewModel().When(extractMarker, memory.Response{Text: stagingTable})

	record, _ := run(t, testConfig(t), Deps{Tools: fx.tools(), Model: model})

	f := record.Fault()
	require.NotNil(t, f)
	assert.Equal(t, domain.FaultToolError, f.Kind)
	assert.Equal(t, NodeDBTLogic, f.Node)
	assert.Contains(t, f.Message, FieldRawLogic)
	assert.Contains(t, f.Message, "connection reset")
	assert.False(t, record.Final.Has(FieldStagingLogic), "no partial logic is written")

	var treeCalls int
	for _, m := range record.Final.Trace {
		if m.Kind == domain.KindToolCall && m.Capability == CapRepoTree {
			treeCalls++
		}
	}
	assert.Equal(t, 3, treeCalls, "all three fetches are recorded")
}

func TestWorkflow_EmptyRepositoryFileIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		file string
		node string
	}{
		{name: "staging model", file: "models/staging/crm/" + stagingTable + ".sql", node: NodeDBTLogic},
		{name: "staging schema", file: "models/staging/crm/" + stagingTable + "_schema.yml", node: NodeSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture()
			fx.files[tt.file] = "  \n"
			model := memory.NewModel().When(extractMarker, memory.Response{Text: stagingTable})

			record, visited := run(t, testConfig(t), Deps{Tools: fx.tools(), Model: model})

			f := record.Fault()
			require.NotNil(t, f)
			assert.Equal(t, domain.FaultToolError, f.Kind)
			assert.Equal(t, domain.CodeNotFound, f.Code)
			assert.Equal(t, tt.node, f.Node)
			assert.Contains(t, f.Message, "is empty")

			var visits int
			for _, name := range visited {
				if name == tt.node {
					visits++
				}
			}
			assert.Equal(t, 1, visits, "the run stops instead of looping back to the fetch")
		})
	}
}

func TestWorkflow_MissingDependencies(t *testing.T) {
	_, err := New(Config{}, Deps{Model: memory.NewModel()})
	assert.Error(t, err)
	_, err = New(Config{}, Deps{Tools: registry.NewRegistry()})
	assert.Error(t, err)

	wf, err := New(Config{}, Deps{Tools: registry.NewRegistry(), Model: memory.NewModel()})
	require.NoError(t, err)
	assert.Equal(t, Name, wf.Name)
	assert.Equal(t, NodeOrchestrator, wf.Start)
}
