package config

import (
	"strings"
)

// bindings maps environment variables onto config paths.
var bindings = map[string]string{
	"AGENTGRAPH_LOG_LEVEL":      "log.level",
	"AGENTGRAPH_LOG_FORMAT":     "log.format",
	"AGENTGRAPH_MAX_STEPS":      "engine.max_steps",
	"AGENTGRAPH_STEP_TIMEOUT":   "engine.step_timeout",
	"AGENTGRAPH_MAX_INPUT_SIZE": "engine.max_request_size",
	"AGENTGRAPH_MODEL_PROVIDER": "model.provider",
	"AGENTGRAPH_MODEL":          "model.name",
	"AGENTGRAPH_MODEL_TIMEOUT":  "model.timeout",
	"AGENTGRAPH_TOOLS_FILE":     "tools_file",
	"AGENTGRAPH_PROMPTS":        "prompts",
	"AGENTGRAPH_STORE":          "store.driver",
	"AGENTGRAPH_STORE_DIR":      "store.dir",
	"AGENTGRAPH_STORE_MAX_RUNS": "store.max_runs",
	"AGENTGRAPH_REDIS_ADDR":     "store.redis.addr",
	"AGENTGRAPH_REDIS_DB":       "store.redis.db",
	"AGENTGRAPH_ENCRYPTION_KEY": "store.encryption_key",
	"AGENTGRAPH_PII_KEYS":       "store.pii_keys",
	"AGENTGRAPH_HTTP_ADDR":      "http.addr",
	"GOOGLE_GEMINI_API_KEY":     "model.api_key",

	"DPX2CLICKHOUSE_MAPPING_STAGING_TO_DPX_SHEET": "workflows.dbt_migration.mapping_sheet",
	"DPX2CLICKHOUSE_PII_COLUMNS_SHEET":            "workflows.dbt_migration.pii_sheet",
	"DPX2CLICKHOUSE_DBT_CLICKHOUSE_REPO":          "workflows.dbt_migration.clickhouse_repo",
	"DPX2CLICKHOUSE_DBT_TRINO_REPO":               "workflows.dbt_migration.trino_repo",
	"DPX2CLICKHOUSE_OUTPUT_DIR":                   "workflows.dbt_migration.output_dir",
}

// applyEnv writes environment overrides into raw.
//
// Besides the fixed bindings, every MCP_SERVER_<NAME>_URL variable declares an MCP
// server named "<name>-server". Empty values are ignored.
func applyEnv(raw map[string]any, environ []string) {
	env := lookup(environ)
	for key, path := range bindings {
		if v := strings.TrimSpace(env[key]); v != "" {
			setPath(raw, strings.Split(path, "."), v)
		}
	}
	for key, v := range env {
		name, ok := ServerName(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		setPath(raw, []string{"mcp", "servers", name}, strings.TrimSpace(v))
	}
}

// ServerName derives the MCP server name from an MCP_SERVER_<NAME>_URL variable.
func ServerName(envKey string) (string, bool) {
	if !strings.HasPrefix(envKey, "MCP_SERVER_") || !strings.HasSuffix(envKey, "_URL") {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(envKey, "MCP_SERVER_"), "_URL")
	if name == "" {
		return "", false
	}
	return strings.ToLower(name) + "-server", true
}

func setPath(m map[string]any, path []string, value any) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}
