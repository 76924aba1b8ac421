package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/yegorpanin/alchemy/internal/resolver"
)

var analogyK int

func init() {
	analogyCmd.Flags().IntVarP(&analogyK, "limit", "k", resolver.DefaultQueryLimit, "Maximum results to return")
	rootCmd.AddCommand(analogyCmd)
}

var analogyCmd = &cobra.Command{
	Use:   "analogy <a> <b> <c>",
	Short: "Solve a is to b as c is to ?",
	Long: `Find the word whose direction from c matches the direction
from a to b.

Examples:
  alchemyd analogy small big quiet
  alchemyd analogy man king woman -k 3`,
	Args: cobra.ExactArgs(3),
	RunE: runAnalogy,
}

func runAnalogy(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	r := mustNewResolver(cfg, mustLoadVocabulary(cfg))

	matches, err := r.Analogy(args[0], args[1], args[2], analogyK)
	if err != nil {
		exitWithError(ExitDataError, "analogy %s: %v", strings.Join(args, " "), err)
	}

	if humanOutput {
		outputHuman("%s is to %s as %s is to:\n", args[0], args[1], args[2])
		printMatchesHuman(matches)
		return nil
	}
	return outputJSON(MatchesResponse{Query: strings.Join(args, " "), Matches: matches})
}
