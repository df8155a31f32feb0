package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/meshed/agentgraph/internal/cli"
	"github.com/meshed/agentgraph/internal/config"
	"github.com/meshed/agentgraph/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentgraph",
	Short: "agentgraph runs LLM agent workflows as explicit state graphs",
	Long: `agentgraph executes workflows of nodes and routers over an immutable state,
calling tools through MCP servers or local processes and models through Gemini.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json or pretty (overrides config)")
}

// loadConfig reads the config file named by --config and applies the log flags.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	// Stdout carries run output and MCP frames, so logs go to stderr.
	logger := logging.NewWithWriter(os.Stderr, level, cfg.Log.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// buildApp loads the config and wires the application.
func buildApp(ctx context.Context, cmd *cobra.Command, mutate func(*config.Config), opts ...cli.BuildOption) (*cli.App, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}
	return cli.Build(ctx, cfg, logger, opts...)
}
