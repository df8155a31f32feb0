// Package dbtmigration is the workflow that ports a ClickHouse staging dbt model
// to the DPX (Trino) stack.
//
// Starting from a free-text request naming a staging table, it resolves the table
// through the mapping and PII spreadsheets, fetches the three dbt models involved
// from their repositories, looks up the table's object storage location and the
// staging schema, then asks the model for the rewritten model and schema YAML and
// writes both to disk.
//
// Control returns to the Orchestrator after every step. The Orchestrator's route
// picks the first missing piece, in this order:
//
//	clickhouse_stg_table                     ExtractStagingTable
//	mapping_sheet_data                       QueryMapping
//	pii_sheet_data                           QueryPII
//	stg/raw/dpx_sql_logic                    QueryGitlabDBTLogic
//	minio_s3_path                            ExtractS3Path
//	stg_table_schema                         FetchSchema
//	generated_stg_dbt_model, *_schema_yaml   SummarizeMigration
//	(all present)                            WriteOutput
//
// Any fault ends the run.
package dbtmigration
