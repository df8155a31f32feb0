package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meshed/agentgraph"
	"github.com/meshed/agentgraph/internal/config"
	"github.com/meshed/agentgraph/pkg/adapters/file"
	"github.com/meshed/agentgraph/pkg/adapters/gemini"
	"github.com/meshed/agentgraph/pkg/adapters/mcp"
	"github.com/meshed/agentgraph/pkg/adapters/memory"
	"github.com/meshed/agentgraph/pkg/adapters/process"
	"github.com/meshed/agentgraph/pkg/adapters/redis"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/observability"
	"github.com/meshed/agentgraph/pkg/persistence/middleware"
	"github.com/meshed/agentgraph/pkg/ports"
	"github.com/meshed/agentgraph/pkg/prompt"
	"github.com/meshed/agentgraph/pkg/runs"
	"github.com/meshed/agentgraph/workflows/dbtmigration"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// DefaultRoutes maps the capabilities used by the bundled workflows onto the
// MCP servers and tools that serve them.
var DefaultRoutes = map[string]mcp.Route{
	dbtmigration.CapSheetQuery: {Server: "google_sheet-server", Tool: "google_sheet_query"},
	dbtmigration.CapSQLQuery:   {Server: "airflow_postgres_gcp-server", Tool: "postgres_query"},
	dbtmigration.CapRepoTree:   {Server: "gitlab_vetc-server", Tool: "get_repository_tree"},
	dbtmigration.CapRepoFile:   {Server: "gitlab_vetc-server", Tool: "get_file_contents"},
}

// App is the fully wired application.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *agentgraph.Engine
	Service  *runs.Manager
	Registry *prometheus.Registry
	Tools    ports.ToolAdapter
	Model    ports.ModelAdapter
	Prompts  ports.PromptLibrary

	closers []func() error
}

// BuildOption tweaks how the App is wired, mostly for tests.
type BuildOption func(*buildOptions)

type buildOptions struct {
	tools ports.ToolAdapter
	model ports.ModelAdapter
	debug bool
}

// WithTools replaces the configured tool adapters.
func WithTools(t ports.ToolAdapter) BuildOption {
	return func(o *buildOptions) { o.tools = t }
}

// WithModel replaces the configured model adapter.
func WithModel(m ports.ModelAdapter) BuildOption {
	return func(o *buildOptions) { o.model = m }
}

// WithDebugHooks logs every lifecycle event at debug level.
func WithDebugHooks(debug bool) BuildOption {
	return func(o *buildOptions) { o.debug = debug }
}

// Build wires adapters, store, metrics and workflows from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...BuildOption) (*App, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var err error
	app.Model, app.Tools = o.model, o.tools
	if app.Model == nil {
		if app.Model, err = newModel(cfg.Model, logger); err != nil {
			return nil, err
		}
	}
	if app.Tools == nil {
		if app.Tools, err = app.newTools(cfg, logger); err != nil {
			app.Close()
			return nil, err
		}
	}

	store, locker, err := app.newStore(ctx, cfg.Store)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Prompts, err = loadPrompts(cfg.Prompts)
	if err != nil {
		app.Close()
		return nil, err
	}

	dbt := cfg.Workflows.DBTMigration
	wf, err := dbtmigration.New(dbtmigration.Config{
		MappingSheet:   dbt.MappingSheet,
		PIISheet:       dbt.PIISheet,
		ClickHouseRepo: dbt.ClickHouseRepo,
		TrinoRepo:      dbt.TrinoRepo,
		Ref:            dbt.Ref,
		TrinoRef:       dbt.TrinoRef,
		S3BaseURL:      dbt.S3BaseURL,
		OutputDir:      dbt.OutputDir,
		ToolDeadline:   cfg.MCP.Timeout,
		MaxSteps:       cfg.Engine.MaxSteps,
	}, dbtmigration.Deps{Tools: app.Tools, Model: app.Model, Prompts: app.Prompts})
	if err != nil {
		app.Close()
		return nil, err
	}

	hooks := observability.NewMetrics(app.Registry).Hooks()
	if o.debug {
		hooks = hooks.Merge(observability.LoggingHooks(logger))
	}

	app.Engine, err = agentgraph.New(
		agentgraph.WithLogger(logger),
		agentgraph.WithStore(store),
		agentgraph.WithStepTimeout(cfg.Engine.StepTimeout),
		agentgraph.WithMaxRequestSize(cfg.Engine.MaxRequestSize),
		agentgraph.WithLifecycleHooks(hooks),
		agentgraph.WithWorkflows(wf),
	)
	if err != nil {
		app.Close()
		return nil, err
	}

	managerOpts := []runs.Option{runs.WithLogger(logger)}
	if locker != nil {
		managerOpts = append(managerOpts, runs.WithLocker(locker))
	}
	app.Service = runs.NewManager(app.Engine, managerOpts...)
	return app, nil
}

// Close releases adapter connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newModel(cfg config.ModelConfig, logger *slog.Logger) (ports.ModelAdapter, error) {
	switch cfg.Provider {
	case "scripted":
		return memory.NewModel(cfg.Script...), nil
	case "gemini":
		return gemini.New(gemini.Config{
			APIKey:          cfg.APIKey,
			Model:           cfg.Name,
			BaseURL:         cfg.BaseURL,
			APIVersion:      cfg.APIVersion,
			Timeout:         cfg.Timeout,
			MaxRetries:      cfg.MaxRetries,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
			Logger:          logger,
		})
	}
	return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
}

// newTools chains local process tools before the MCP servers.
func (a *App) newTools(cfg *config.Config, logger *slog.Logger) (ports.ToolAdapter, error) {
	var chain toolChain

	if cfg.ToolsFile != "" {
		registry, err := process.LoadTools(cfg.ToolsFile)
		if err != nil {
			return nil, err
		}
		chain = append(chain, process.NewRunner(
			process.WithRegistry(registry),
			process.WithBaseDir(filepath.Dir(cfg.ToolsFile)),
			process.WithLogger(logger),
		))
	}

	if len(cfg.MCP.Servers) > 0 {
		routes := make(map[string]mcp.Route)
		for name, r := range DefaultRoutes {
			if _, ok := cfg.MCP.Servers[r.Server]; ok {
				routes[name] = r
			}
		}
		for name, ref := range cfg.MCP.Capabilities {
			routes[name] = mcp.Route{Server: ref.Server, Tool: ref.Tool}
		}
		client, err := mcp.NewClient(cfg.MCP.Servers, mcp.WithRoutes(routes), mcp.WithClientLogger(logger))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		chain = append(chain, client)
	}

	if len(chain) == 0 {
		logger.Warn("No tool adapters configured; every tool call will fail")
	}
	return chain, nil
}

func (a *App) newStore(ctx context.Context, cfg config.StoreConfig) (ports.RunStore, ports.DistributedLocker, error) {
	var (
		store  ports.RunStore
		locker ports.DistributedLocker
	)
	switch cfg.Driver {
	case "redis":
		rs := redis.New(cfg.Redis.Addr, "", cfg.Redis.DB, redis.WithPrefix(cfg.Redis.Prefix+"run:"), redis.WithTTL(cfg.Redis.TTL))
		if err := rs.Client().Ping(ctx).Err(); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, rs.Close)
		store = rs
		locker = redis.NewLocker(rs.Client(), cfg.Redis.Prefix)
	case "file":
		store = file.New(cfg.Dir)
	default:
		store = memory.NewStore(memory.WithCapacity(cfg.MaxRuns))
	}

	var mws []middleware.Middleware
	if len(cfg.PIIKeys) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIKeys))
	}
	if cfg.EncryptionKey != "" {
		keys := middleware.EncryptionConfig{ActiveKey: []byte(cfg.EncryptionKey)}
		for _, k := range cfg.PreviousKeys {
			keys.FallbackKeys = append(keys.FallbackKeys, []byte(k))
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(keys))
	}
	return middleware.Chain(store, mws...), locker, nil
}

// loadPrompts opens a directory of prompt documents or a single prompts file.
// An empty path selects the prompts bundled with the workflows.
func loadPrompts(path string) (ports.PromptLibrary, error) {
	if path == "" {
		return dbtmigration.DefaultPrompts(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prompts: %w", err)
	}
	if info.IsDir() {
		return prompt.OpenLibrary(path)
	}
	return prompt.LoadFile(path)
}

// artifacts reads the files a run reported in its output_files field.
func artifacts(record *domain.RunRecord) map[string]string {
	out := make(map[string]string)
	if record == nil || record.Final == nil {
		return out
	}
	v, ok := record.Final.Get(dbtmigration.FieldOutputFiles)
	if !ok {
		return out
	}
	paths, _ := v.([]string)
	if paths == nil {
		if items, ok := v.([]any); ok {
			for _, item := range items {
				if s, ok := item.(string); ok {
					paths = append(paths, s)
				}
			}
		}
	}
	for _, p := range paths {
		if data, err := os.ReadFile(p); err == nil {
			out[p] = string(data)
		}
	}
	return out
}
