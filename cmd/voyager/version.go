package main

import (
	"fmt"

	voyager "github.com/nullvoyager/voyager"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of voyager",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "voyager version %s\n", voyager.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
