package main

import (
	"os"

	"github.com/aretw0/grove/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the document as a Mermaid diagram",
	Long:  `Outputs a Mermaid diagram (graph LR) with groups as coloured subgraphs and faint wires dashed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if !cmd.Flags().Changed("file") && len(args) > 0 {
			path = args[0]
		}
		return cli.RunGraph(path, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
