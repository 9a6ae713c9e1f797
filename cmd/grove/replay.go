package main

import (
	"os"

	"github.com/aretw0/grove/internal/cli"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay scripted edits against live policies",
	Long: `Activates the selected policies, applies the steps of a replay script (add, remove,
rename, regroup, connect, recolor, undo) and prints the journals and the final graph.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		script, _ := cmd.Flags().GetString("script")
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunReplay(ctx, readOptions(cmd), script, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringP("script", "s", "replay.yaml", "Replay script")
}
