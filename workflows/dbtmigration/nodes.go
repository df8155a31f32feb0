package dbtmigration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/nodekit"
	"github.com/meshed/agentgraph/pkg/prompt"
	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"
)

type nodes struct {
	cfg  Config
	deps Deps
}

// orchestrate seeds the sheet ids on the first visit and records the plan.
// Routing is done by the table.
func (n *nodes) orchestrate(ctx context.Context, s *domain.State) *domain.State {
	if ready, _ := s.Get(FieldReady); cast.ToBool(ready) {
		return s
	}

	if !s.Has(FieldMappingSheetID) && n.cfg.MappingSheet != "" {
		s = s.Set(FieldMappingSheetID, n.cfg.MappingSheet)
	}
	if !s.Has(FieldPIISheetID) && n.cfg.PIISheet != "" {
		s = s.Set(FieldPIISheetID, n.cfg.PIISheet)
	}
	s = s.Set(FieldReady, true)

	tpl, err := nodekit.Named(n.deps.Prompts, PromptSteps).Resolve(ctx)
	if err != nil {
		return s.WithFault(&domain.Fault{Kind: domain.FaultModelError, Code: domain.CodeNotFound, Message: err.Error()})
	}
	return s.Append(domain.RoleSystem, domain.KindText, prompt.Render(tpl, s.Fields))
}

// querySheet reads the sheet whose id is in idField and returns the row of the
// staging table. A missing row is not a fault.
func (n *nodes) querySheet(ctx context.Context, s *domain.State, idField string) (*domain.State, map[string]any, bool) {
	sheet, _ := s.GetString(idField)
	if sheet == "" {
		return s.WithFault(&domain.Fault{
			Kind:    domain.FaultToolError,
			Code:    domain.CodeInvalidArgs,
			Message: idField + " missing in state",
		}), nil, false
	}

	rec := nodekit.InvokeTool(ctx, n.deps.Tools, domain.ToolCall{
		Capability: CapSheetQuery,
		Args:       map[string]any{"spreadsheet_id": sheet},
		Deadline:   n.cfg.ToolDeadline,
	})
	s = rec.Record(s)
	if !rec.OK() {
		return s.WithFault(rec.Fault), nil, false
	}

	table, _ := s.GetString(FieldStagingTable)
	row, found := matchRow(sheetRows(rec.Result), table)
	return s, row, found
}

func (n *nodes) queryMapping(ctx context.Context, s *domain.State) *domain.State {
	s, row, found := n.querySheet(ctx, s, FieldMappingSheetID)
	if s.Failed() {
		return s
	}
	table, _ := s.GetString(FieldStagingTable)
	if !found {
		return s.WithFault(&domain.Fault{
			Kind:    domain.FaultToolError,
			Code:    domain.CodeNotFound,
			Message: fmt.Sprintf("no mapping found for staging table %q", table),
		})
	}

	var m MappingRow
	if err := decodeRow(row, &m); err != nil {
		return s.WithFault(&domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeRemote, Message: err.Error()})
	}
	return s.SetAll(map[string]any{
		FieldMappingData:  row,
		FieldRawTable:     m.RawTable,
		FieldDPXCatalog:   m.Catalog,
		FieldDPXSchema:    m.Schema,
		FieldDPXTableName: m.TableName,
		FieldDPXTableID:   m.TableID,
	}).Append(domain.RoleSystem, domain.KindText,
		fmt.Sprintf("found mapping: %s -> %s.%s.%s (id %s)", m.RawTable, m.Catalog, m.Schema, m.TableName, m.TableID))
}

func (n *nodes) queryPII(ctx context.Context, s *domain.State) *domain.State {
	s, row, found := n.querySheet(ctx, s, FieldPIISheetID)
	if s.Failed() {
		return s
	}

	cols := []string{}
	if found {
		var r PIIRow
		if err := decodeRow(row, &r); err != nil {
			return s.WithFault(&domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeRemote, Message: err.Error()})
		}
		cols = r.ColumnList()
	} else {
		// Tables without PII have no row; keep a marker so the route moves on.
		table, _ := s.GetString(FieldStagingTable)
		row = map[string]any{FieldStagingTable: table}
	}
	return s.SetAll(map[string]any{
		FieldPIIData:    row,
		FieldPIIColumns: cols,
	}).Append(domain.RoleSystem, domain.KindText, fmt.Sprintf("found PII columns: [%s]", strings.Join(cols, ", ")))
}

func (n *nodes) fetchDBTLogic(ctx context.Context, s *domain.State) *domain.State {
	required := []string{FieldStagingTable, FieldRawTable, FieldDPXTableName, FieldDPXCatalog, FieldDPXSchema, FieldDPXTableID}
	var missing []string
	for _, key := range required {
		if !s.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return s.WithFault(&domain.Fault{
			Kind:    domain.FaultToolError,
			Code:    domain.CodeInvalidArgs,
			Message: "missing required fields to fetch dbt logic: " + strings.Join(missing, ", "),
		})
	}

	get := func(key string) string {
		v, _ := s.GetString(key)
		return v
	}
	targets := []string{FieldStagingLogic, FieldRawLogic, FieldDPXLogic}
	fetches := []repoFetch{
		{Project: n.cfg.ClickHouseRepo, Path: "models/staging", Ref: n.cfg.Ref, Names: modelFiles(get(FieldStagingTable))},
		{Project: n.cfg.ClickHouseRepo, Path: "models/raw", Ref: n.cfg.Ref, Names: modelFiles(get(FieldRawTable))},
		{
			Project: n.cfg.TrinoRepo,
			Path:    fmt.Sprintf("models/%s/%s", get(FieldDPXCatalog), get(FieldDPXSchema)),
			Ref:     n.cfg.TrinoRef,
			Names:   modelFiles(get(FieldDPXTableName)),
		},
	}

	results := make([]fetchResult, len(fetches))
	var g errgroup.Group
	for i, f := range fetches {
		g.Go(func() error {
			results[i] = f.run(ctx, n.deps.Tools, n.cfg.ToolDeadline)
			return nil
		})
	}
	_ = g.Wait()

	values := make(map[string]any, len(targets))
	var fault *domain.Fault
	for i, res := range results {
		s = nodekit.RecordAll(s, res.Records...)
		if res.Fault != nil && fault == nil {
			f := *res.Fault
			f.Message = fmt.Sprintf("%s: %s", targets[i], f.Message)
			fault = &f
		}
		values[targets[i]] = res.Content
	}
	if fault != nil {
		return s.WithFault(fault)
	}
	return s.SetAll(values).Append(domain.RoleSystem, domain.KindText, "retrieved dbt logic for the ClickHouse and DPX tables")
}

func (n *nodes) extractS3Path(ctx context.Context, s *domain.State) *domain.State {
	id, _ := s.GetString(FieldDPXTableID)
	if id == "" {
		return s.WithFault(&domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeInvalidArgs, Message: "dpx_table_id missing in state"})
	}

	sql := fmt.Sprintf("select fs_location from public.active_tables where table_id = '%s'", strings.ReplaceAll(id, "'", "''"))
	rec := nodekit.InvokeTool(ctx, n.deps.Tools, domain.ToolCall{
		Capability: CapSQLQuery,
		Args:       map[string]any{"sql_query": sql},
		Deadline:   n.cfg.ToolDeadline,
	})
	s = rec.Record(s)
	if !rec.OK() {
		return s.WithFault(rec.Fault)
	}

	rows := sheetRows(rec.Result)
	var location string
	if len(rows) > 0 {
		location = strings.TrimSpace(cast.ToString(rows[0]["fs_location"]))
	}
	if location == "" {
		return s.WithFault(&domain.Fault{
			Kind:    domain.FaultToolError,
			Code:    domain.CodeNotFound,
			Message: fmt.Sprintf("no storage location for table id %s", id),
		})
	}

	path := joinURL(n.cfg.S3BaseURL, location)
	return s.Set(FieldS3Path, path).Append(domain.RoleSystem, domain.KindText, "extracted object storage path: "+path)
}

func (n *nodes) fetchSchema(ctx context.Context, s *domain.State) *domain.State {
	table, _ := s.GetString(FieldStagingTable)
	res := repoFetch{
		Project: n.cfg.ClickHouseRepo,
		Path:    "models/staging",
		Ref:     n.cfg.Ref,
		Names:   schemaFiles(table),
	}.run(ctx, n.deps.Tools, n.cfg.ToolDeadline)

	s = nodekit.RecordAll(s, res.Records...)
	if res.Fault != nil {
		return s.WithFault(res.Fault)
	}
	return s.Set(FieldStagingSchema, res.Content).
		Append(domain.RoleSystem, domain.KindText, fmt.Sprintf("retrieved schema for `%s`", table))
}

func (n *nodes) writeOutput(ctx context.Context, s *domain.State) *domain.State {
	table, _ := s.GetString(FieldStagingTable)
	if table == "" || strings.ContainsAny(table, `/\`) || table == "." || table == ".." {
		return s.WithFault(&domain.Fault{
			Kind:    domain.FaultToolError,
			Code:    domain.CodeInvalidArgs,
			Message: fmt.Sprintf("invalid staging table name %q", table),
		})
	}
	model, _ := s.GetString(FieldGeneratedModel)
	schemaYAML, _ := s.GetString(FieldGeneratedSchema)

	files, err := WriteFiles(n.cfg.OutputDir, table, model, schemaYAML)
	if err != nil {
		return s.WithFault(&domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeUnavailable, Message: err.Error()})
	}
	nodekit.Logger(ctx).Info("Wrote migration output", "sql", files[0], "yaml", files[1])
	return s.Set(FieldOutputFiles, files).
		Append(domain.RoleSystem, domain.KindText, fmt.Sprintf("wrote files:\n- SQL: %s\n- YAML: %s", files[0], files[1]))
}

// WriteFiles writes dpx_<table>.sql and dpx_<table>_schema.yaml into dir and
// returns their paths.
func WriteFiles(dir, table, model, schemaYAML string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	sqlPath := filepath.Join(dir, "dpx_"+table+".sql")
	yamlPath := filepath.Join(dir, "dpx_"+table+"_schema.yaml")
	if err := os.WriteFile(sqlPath, []byte(model), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", sqlPath, err)
	}
	if err := os.WriteFile(yamlPath, []byte(schemaYAML), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", yamlPath, err)
	}
	return []string{sqlPath, yamlPath}, nil
}

func joinURL(base, location string) string {
	if base == "" {
		return location
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(location, "/")
}

// stringList reads a list field that may have been round-tripped through JSON.
func stringList(s *domain.State, key string) []string {
	v, ok := s.Get(key)
	if !ok || v == nil {
		return nil
	}
	return cast.ToStringSlice(v)
}
