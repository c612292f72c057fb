package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "voyager",
	Short: "NullVoyager is a conversational travel concierge",
	Long: `NullVoyager plans trips through a chat conversation. The assistant moves through
inspiration, planning and booking modes and uses flight, hotel and destination tools.`,
	SilenceUsage: true,
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
	flags.String("config", "", "Path to a YAML config file (default ./voyager.yaml)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-file", "", "Also write logs to this file, rotated")
	flags.String("store", "", "Session store: memory, file, redis, postgres")
	flags.String("store-dir", "", "Directory of the file store")
	flags.String("provider", "", "Model provider: openai, anthropic, gemini")
	flags.String("model", "", "Model id (provider default when empty)")
	flags.Int("max-steps", 0, "Maximum model calls per turn")
}
