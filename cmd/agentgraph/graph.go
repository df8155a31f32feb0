package main

import (
	"fmt"

	"github.com/meshed/agentgraph/workflows/dbtmigration"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [workflow]",
	Short: "Export the workflow graph as a Mermaid diagram",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workflow := dbtmigration.Name
		if len(args) > 0 {
			workflow = args[0]
		}

		app, err := buildApp(cmd.Context(), cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		out, err := app.Engine.Graph(workflow)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
