package main

import (
	"fmt"

	"github.com/meshed/agentgraph"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of agentgraph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "agentgraph version %s\n", agentgraph.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
