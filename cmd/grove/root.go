package main

import (
	"fmt"
	"os"
	"time"

	"github.com/aretw0/grove/internal/cli"
	"github.com/aretw0/grove/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "grove",
	Short: "Grove keeps node-graph documents readable",
	Long: `Grove runs presentation policies over a node-graph document: it colours groups from
swatch prefixes, shows parameter names and fades wires that cross group boundaries.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet && cmd.Name() != "mcp" && term.IsTerminal(int(os.Stderr.Fd())) {
			tui.PrintBanner(os.Stderr)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringP("file", "f", "document.yaml", "Document to annotate (.yaml or .json)")
	flags.StringP("workspace", "w", "grove.yaml", "Workspace with per-policy settings")
	flags.StringSlice("policy", nil, "Policies to run (colorgroups, fixparams, fixwires)")
	flags.Bool("rename", false, "Strip the prefix from recoloured groups")
	flags.Bool("debug", false, "Trace policy decisions")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("redis", "", "Redis address for the instance registry and sweep lock")
	flags.Duration("lock-ttl", 30*time.Second, "Sweep lock expiry when --redis is set")
	flags.Uint64("seed", 0, "Seed for instance ids (0 draws them at random)")
	flags.BoolP("quiet", "q", false, "Do not print the banner")
}

// readOptions collects the shared flags.
func readOptions(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	var opts cli.Options
	opts.DocPath, _ = flags.GetString("file")
	opts.WorkspacePath, _ = flags.GetString("workspace")
	opts.Policies, _ = flags.GetStringSlice("policy")
	opts.Rename, _ = flags.GetBool("rename")
	opts.Debug, _ = flags.GetBool("debug")
	opts.LogLevel, _ = flags.GetString("log-level")
	opts.RedisAddr, _ = flags.GetString("redis")
	opts.LockTTL, _ = flags.GetDuration("lock-ttl")
	opts.Seed, _ = flags.GetUint64("seed")
	return opts
}
