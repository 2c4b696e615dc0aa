package main

import (
	"os"

	"github.com/cottand/gentype/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "gentype [subcommand]",
	Short:        "gentype finds the most general types a TypeScript declaration can be given",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.TypesCmd)
	rootCmd.AddCommand(cmd.SitesCmd)
	rootCmd.AddCommand(cmd.ReplayCmd)
}
