package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Engine    EngineConfig    `mapstructure:"engine" yaml:"engine"`
	Model     ModelConfig     `mapstructure:"model" yaml:"model"`
	MCP       MCPConfig       `mapstructure:"mcp" yaml:"mcp"`
	ToolsFile string          `mapstructure:"tools_file" yaml:"tools_file"`
	Prompts   string          `mapstructure:"prompts" yaml:"prompts"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Workflows WorkflowsConfig `mapstructure:"workflows" yaml:"workflows"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type EngineConfig struct {
	MaxSteps    int           `mapstructure:"max_steps" yaml:"max_steps"`
	StepTimeout time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
	// MaxRequestSize bounds request text in bytes; zero disables the check.
	MaxRequestSize int `mapstructure:"max_request_size" yaml:"max_request_size"`
}

// ModelConfig selects and tunes the model adapter.
type ModelConfig struct {
	// Provider is "gemini" or "scripted". Scripted answers from Script, for dry runs.
	Provider        string        `mapstructure:"provider" yaml:"provider"`
	APIKey          string        `mapstructure:"api_key" yaml:"api_key"`
	Name            string        `mapstructure:"name" yaml:"name"`
	BaseURL         string        `mapstructure:"base_url" yaml:"base_url"`
	APIVersion      string        `mapstructure:"api_version" yaml:"api_version"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries" yaml:"max_retries"`
	Temperature     float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`
	Script          []string      `mapstructure:"script" yaml:"script"`
}

// MCPConfig lists MCP servers and how capabilities map onto their tools.
type MCPConfig struct {
	Servers      map[string]string        `mapstructure:"servers" yaml:"servers"`
	Capabilities map[string]CapabilityRef `mapstructure:"capabilities" yaml:"capabilities"`
	Timeout      time.Duration            `mapstructure:"timeout" yaml:"timeout"`
}

// CapabilityRef points a capability name at a tool of a server.
type CapabilityRef struct {
	Server string `mapstructure:"server" yaml:"server"`
	Tool   string `mapstructure:"tool" yaml:"tool"`
}

type StoreConfig struct {
	// Driver is "memory", "file" or "redis".
	Driver string `mapstructure:"driver" yaml:"driver"`
	// Dir holds one JSON file per run for the file driver.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxRuns bounds the memory driver. Zero keeps every run.
	MaxRuns       int         `mapstructure:"max_runs" yaml:"max_runs"`
	Redis         RedisConfig `mapstructure:"redis" yaml:"redis"`
	EncryptionKey string      `mapstructure:"encryption_key" yaml:"encryption_key"`
	// PreviousKeys still open records sealed before a key rotation.
	PreviousKeys []string `mapstructure:"previous_keys" yaml:"previous_keys"`
	PIIKeys      []string `mapstructure:"pii_keys" yaml:"pii_keys"`
}

type RedisConfig struct {
	Addr   string        `mapstructure:"addr" yaml:"addr"`
	DB     int           `mapstructure:"db" yaml:"db"`
	Prefix string        `mapstructure:"prefix" yaml:"prefix"`
	TTL    time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// MaxBodyBytes bounds request bodies. Zero uses the server default.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

type WorkflowsConfig struct {
	DBTMigration DBTMigrationConfig `mapstructure:"dbt_migration" yaml:"dbt_migration"`
}

// DBTMigrationConfig holds the sources used by the dbt migration workflow.
type DBTMigrationConfig struct {
	MappingSheet   string `mapstructure:"mapping_sheet" yaml:"mapping_sheet"`
	PIISheet       string `mapstructure:"pii_sheet" yaml:"pii_sheet"`
	ClickHouseRepo string `mapstructure:"clickhouse_repo" yaml:"clickhouse_repo"`
	TrinoRepo      string `mapstructure:"trino_repo" yaml:"trino_repo"`
	Ref            string `mapstructure:"ref" yaml:"ref"`
	TrinoRef       string `mapstructure:"trino_ref" yaml:"trino_ref"`
	S3BaseURL      string `mapstructure:"s3_base_url" yaml:"s3_base_url"`
	OutputDir      string `mapstructure:"output_dir" yaml:"output_dir"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Engine: EngineConfig{MaxSteps: 25, MaxRequestSize: 4096},
		Model: ModelConfig{
			Provider:   "gemini",
			Name:       "gemini-2.5-flash",
			BaseURL:    "https://generativelanguage.googleapis.com/",
			APIVersion: "v1beta",
			Timeout:    60 * time.Second,
			MaxRetries: 2,
		},
		MCP:   MCPConfig{Timeout: 30 * time.Second},
		Store: StoreConfig{Driver: "memory", Redis: RedisConfig{Addr: "localhost:6379", Prefix: "agentgraph:"}},
		HTTP:  HTTPConfig{Addr: ":8080"},
		Workflows: WorkflowsConfig{DBTMigration: DBTMigrationConfig{
			Ref:       "main",
			TrinoRef:  "production",
			S3BaseURL: "https://s3-dpex.vetc.com.vn/",
			OutputDir: "output_files",
		}},
	}
}

// Load reads the YAML file at path (optional) and applies environment overrides
// on top of the defaults.
func Load(path string) (*Config, error) {
	return load(path, os.Environ())
}

func load(path string, environ []string) (*Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	applyEnv(raw, environ)

	cfg := Default()
	if err := Decode(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Decode decodes a generic map into out. Strings are converted to numbers,
// booleans and durations where the target requires it.
func Decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	if c.Engine.MaxSteps <= 0 {
		return fmt.Errorf("engine.max_steps must be positive, got %d", c.Engine.MaxSteps)
	}
	switch c.Store.Driver {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("store.driver must be memory, file or redis, got %q", c.Store.Driver)
	}
	switch c.Model.Provider {
	case "gemini", "scripted":
	default:
		return fmt.Errorf("model.provider must be gemini or scripted, got %q", c.Model.Provider)
	}
	if n := len(c.Store.EncryptionKey); n != 0 && n != 32 {
		return fmt.Errorf("store.encryption_key must be 32 bytes, got %d", n)
	}
	for i, key := range c.Store.PreviousKeys {
		if len(key) != 32 {
			return fmt.Errorf("store.previous_keys[%d] must be 32 bytes, got %d", i, len(key))
		}
	}
	for name, ref := range c.MCP.Capabilities {
		if _, ok := c.MCP.Servers[ref.Server]; !ok {
			return fmt.Errorf("mcp capability %q references unknown server %q", name, ref.Server)
		}
	}
	return nil
}

func lookup(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
