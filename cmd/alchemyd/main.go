// Package main provides the alchemyd CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath is the optional config file, flags and env still apply
var configPath string

func main() {
	// A .env file is optional; BOT_TOKEN and ALCHEMY_* vars layer over it.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "alchemyd",
	Short: "Word-combination engine and service",
	Long: `alchemyd resolves word combinations over a vector vocabulary.

Core features:
  - Deterministic combination resolution via embedding similarity
  - Durable shared combination cache (MongoDB, SQLite, or in-memory)
  - First-discovery arbitration and a leaderboard ledger
  - Vector queries: similar, analogy, mix, between
  - HTTP API for bot front-end replicas

All commands output JSON by default for tooling integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (YAML)")
	rootCmd.Version = Version
}
