package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/meshed/agentgraph/internal/cli"
	"github.com/meshed/agentgraph/internal/config"
	"github.com/meshed/agentgraph/workflows/dbtmigration"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [request]",
	Short: "Run a workflow to completion",
	Long: `Starts a workflow with the given request text and prints each step.
The run ends when the workflow reaches a terminal signal, a fault or the step limit.`,
	Example: `  agentgraph run "migrate staging_crm_account to DPX"
  agentgraph run --field clickhouse_stg_table=staging_crm_account --json
  agentgraph run "migrate staging_crm_account" --script staging_crm_account --script '{"generated_stg_dbt_model": "select 1"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		workflow, _ := cmd.Flags().GetString("workflow")
		pairs, _ := cmd.Flags().GetStringArray("field")
		jsonMode, _ := cmd.Flags().GetBool("json")
		debug, _ := cmd.Flags().GetBool("debug")
		script, _ := cmd.Flags().GetStringArray("script")

		fields, err := cli.ParseFields(pairs)
		if err != nil {
			return err
		}

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()

		app, err := buildApp(sc, cmd, func(cfg *config.Config) {
			if cmd.Flags().Changed("script") {
				cfg.Model.Provider = "scripted"
				cfg.Model.Script = script
			}
		}, cli.WithDebugHooks(debug))
		if err != nil {
			return err
		}
		defer app.Close()

		_, err = cli.Run(sc, app, cli.RunOptions{
			Workflow: workflow,
			Request:  strings.Join(args, " "),
			Fields:   fields,
			JSON:     jsonMode,
			Out:      os.Stdout,
		})
		if sig := sc.Signal(); sig != nil {
			return fmt.Errorf("interrupted by %v", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("workflow", "w", dbtmigration.Name, "Workflow to run")
	runCmd.Flags().StringArrayP("field", "f", nil, "Initial field as key=value (repeatable, values may be JSON)")
	runCmd.Flags().Bool("json", false, "Print one JSON state diff per step")
	runCmd.Flags().Bool("debug", false, "Log every lifecycle event")
	runCmd.Flags().StringArray("script", nil, "Answer model calls with these replies, in order, instead of the configured provider")
}
