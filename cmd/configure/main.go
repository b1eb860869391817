package main

import (
	"fmt"
	"os"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "daily-quests-configure",
		Short: "Configuration tool for the daily quests service",
		Long:  "CLI tool for managing the quest catalog, rate limits and checking a deployment",
	}

	rootCmd.AddCommand(commands.NewCatalogCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewSmokeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
