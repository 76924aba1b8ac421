package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yegorpanin/alchemy/internal/resolver"
)

var betweenK int

func init() {
	betweenCmd.Flags().IntVarP(&betweenK, "limit", "k", resolver.DefaultQueryLimit, "Maximum results to return")
	rootCmd.AddCommand(betweenCmd)
}

var betweenCmd = &cobra.Command{
	Use:   "between <a> <b>",
	Short: "Find words lying between two words",
	Long: `Rank vocabulary words by their distance to the line segment
joining two word vectors, nearest first.

Examples:
  alchemyd between hot cold
  alchemyd between cat dog -k 10`,
	Args: cobra.ExactArgs(2),
	RunE: runBetween,
}

func runBetween(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	r := mustNewResolver(cfg, mustLoadVocabulary(cfg))

	matches, err := r.Between(args[0], args[1], betweenK)
	if err != nil {
		exitWithError(ExitDataError, "between %q and %q: %v", args[0], args[1], err)
	}

	if humanOutput {
		printMatchesHuman(matches)
		return nil
	}
	return outputJSON(MatchesResponse{Query: fmt.Sprintf("%s .. %s", args[0], args[1]), Matches: matches})
}
