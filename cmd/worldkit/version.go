package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/worldkit"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of worldkit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("worldkit version %s\n", strings.TrimSpace(worldkit.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
