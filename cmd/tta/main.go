// Package main is the tta command line entry point
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tta",
	Short: "Solo text adventure engine",
	Long: `tta runs a solo text adventure: dice, abilities, GM moves, quests,
and branching timelines, played from the terminal.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(seedCmd)
}
