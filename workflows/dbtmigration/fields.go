package dbtmigration

// Field names written to the run state.
const (
	FieldMappingSheetID  = "mapping_sheet_id"
	FieldPIISheetID      = "pii_sheet_id"
	FieldReady           = "is_orchestrator_ready"
	FieldStagingTable    = "clickhouse_stg_table"
	FieldRawTable        = "clickhouse_raw_table"
	FieldMappingData     = "mapping_sheet_data"
	FieldPIIData         = "pii_sheet_data"
	FieldDPXCatalog      = "dpx_catalog"
	FieldDPXSchema       = "dpx_schema"
	FieldDPXTableName    = "dpx_table_name"
	FieldDPXTableID      = "dpx_table_id"
	FieldPIIColumns      = "stg_pii_columns"
	FieldStagingLogic    = "stg_sql_logic"
	FieldRawLogic        = "raw_sql_logic"
	FieldDPXLogic        = "dpx_sql_logic"
	FieldS3Path          = "minio_s3_path"
	FieldStagingSchema   = "stg_table_schema"
	FieldGeneratedModel  = "generated_stg_dbt_model"
	FieldGeneratedSchema = "generated_stg_schema_yaml"
	FieldOutputFiles     = "output_files"
)

// Capabilities the workflow invokes through its tool adapter.
const (
	CapSheetQuery = "sheet-query"
	CapSQLQuery   = "sql-query"
	CapRepoTree   = "repo-tree"
	CapRepoFile   = "repo-file"
)

// Node names.
const (
	NodeOrchestrator = "Orchestrator"
	NodeExtract      = "ExtractStagingTable"
	NodeMapping      = "QueryMapping"
	NodePII          = "QueryPII"
	NodeDBTLogic     = "QueryGitlabDBTLogic"
	NodeS3Path       = "ExtractS3Path"
	NodeSchema       = "FetchSchema"
	NodeSummarize    = "SummarizeMigration"
	NodeWriteOutput  = "WriteOutput"
)

// Prompt sections of prompts.md.
const (
	PromptSteps     = "Step for agent to follow"
	PromptExtract   = "Extract Staging ClickHouse Table"
	PromptSummarize = "Summarize and Rewrite Staging DBT Logic & YAML"
)
