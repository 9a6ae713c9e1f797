package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/grove"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of grove",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("grove version %s\n", strings.TrimSpace(grove.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
