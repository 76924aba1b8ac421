package main

import (
	"github.com/spf13/cobra"

	"github.com/yegorpanin/alchemy/internal/resolver"
	"github.com/yegorpanin/alchemy/internal/vocab"
)

var (
	similarK   int
	similarMin float64
	similarMax float64
)

func init() {
	similarCmd.Flags().IntVarP(&similarK, "limit", "k", resolver.DefaultQueryLimit, "Maximum results to return")
	similarCmd.Flags().Float64Var(&similarMin, "min", -1, "Minimum similarity (-1 leaves the bound open)")
	similarCmd.Flags().Float64Var(&similarMax, "max", -1, "Maximum similarity (-1 leaves the bound open)")
	rootCmd.AddCommand(similarCmd)
}

var similarCmd = &cobra.Command{
	Use:   "similar <word>",
	Short: "Find vocabulary words nearest to a word",
	Long: `Rank vocabulary words by cosine similarity to the given word.

The --min/--max band keeps only results inside the band, which is
useful for finding related-but-not-synonymous words.

Examples:
  alchemyd similar fire
  alchemyd similar fire -k 10
  alchemyd similar fire --min 0.3 --max 0.7`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func runSimilar(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	r := mustNewResolver(cfg, mustLoadVocabulary(cfg))

	matches, err := r.SimilarWords(args[0], similarK, float32(similarMin), float32(similarMax))
	if err != nil {
		exitWithError(ExitDataError, "similar %q: %v", args[0], err)
	}

	if humanOutput {
		printMatchesHuman(matches)
		return nil
	}
	return outputJSON(MatchesResponse{Query: vocab.Canonical(args[0]), Matches: matches})
}
