package dbtmigration

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// MappingRow is one row of the staging to DPX mapping sheet.
type MappingRow struct {
	StagingTable string `mapstructure:"clickhouse_stg_table"`
	RawTable     string `mapstructure:"clickhouse_raw_table"`
	Catalog      string `mapstructure:"dpx_catalog"`
	Schema       string `mapstructure:"dpx_schema"`
	TableName    string `mapstructure:"dpx_table_name"`
	TableID      string `mapstructure:"dpx_table_id"`
}

// PIIRow is one row of the PII columns sheet. Columns is either a single cell
// value or a list.
type PIIRow struct {
	StagingTable string `mapstructure:"clickhouse_stg_table"`
	Columns      any    `mapstructure:"stg_pii_columns"`
}

// ColumnList normalizes Columns. Blank entries are dropped.
func (r PIIRow) ColumnList() []string {
	var raw []any
	switch v := r.Columns.(type) {
	case nil:
		return []string{}
	case []any:
		raw = v
	case []string:
		for _, s := range v {
			raw = append(raw, s)
		}
	default:
		raw = []any{v}
	}
	cols := make([]string, 0, len(raw))
	for _, item := range raw {
		if s := strings.TrimSpace(cast.ToString(item)); s != "" {
			cols = append(cols, s)
		}
	}
	return cols
}

// sheetRows turns a spreadsheet query result into rows. The adapter may return
// decoded JSON or the raw text; anything else yields no rows.
func sheetRows(result any) []map[string]any {
	if s, ok := result.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil
		}
		result = decoded
	}
	items, ok := result.([]any)
	if !ok {
		return nil
	}
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if row, ok := item.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// matchRow returns the first row whose clickhouse_stg_table equals table,
// ignoring case and surrounding spaces.
func matchRow(rows []map[string]any, table string) (map[string]any, bool) {
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(cast.ToString(row[FieldStagingTable])), table) {
			return row, true
		}
	}
	return nil, false
}

// decodeRow decodes a sheet row into out. Cells are weakly typed, so numeric ids
// decode into strings.
func decodeRow(row map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(row); err != nil {
		return fmt.Errorf("failed to decode sheet row: %w", err)
	}
	return nil
}
