package main

import (
	"context"
	"os"

	"github.com/aretw0/grove/internal/cli"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Run the policies once and write the annotated document",
	Long: `Loads the document, runs the one-shot sweep of every selected policy and writes the
result. Journals are printed on stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := readOptions(cmd)
		opts.Output, _ = cmd.Flags().GetString("output")
		return cli.RunApply(context.Background(), opts, os.Stdout, os.Stderr)
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringP("output", "o", "-", "Where to write the annotated document")
}
