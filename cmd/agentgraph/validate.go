package main

import (
	"fmt"

	"github.com/meshed/agentgraph/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration, workflows and prompts",
	Long:  `Builds the application from the config, then reports every workflow, prompt and tool capability it can resolve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd.Context(), cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := cli.Validate(cmd.Context(), app, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
