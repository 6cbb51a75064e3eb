// Package main provides the site_agent CLI: load web pages and chat about them.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "site_agent",
	Short:         "Chat with a language model about the websites you load",
	Long:          "site_agent fetches web pages through a chain of fallback strategies, extracts their readable text and lets you ask questions about them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	rootConfigPath string
	rootStatePath  string
	rootVerbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&rootStatePath, "state", "", "Path of the state file (overrides config and SITE_ASSISTANT_STATE)")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed debug logs to stderr")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
