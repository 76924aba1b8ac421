package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yegorpanin/alchemy/internal/resolver"
)

var mixK int

func init() {
	mixCmd.Flags().IntVarP(&mixK, "limit", "k", resolver.DefaultQueryLimit, "Maximum results to return")
	rootCmd.AddCommand(mixCmd)
}

var mixCmd = &cobra.Command{
	Use:   "mix <expression>",
	Short: "Blend weighted words into a query vector",
	Long: `Mix word vectors with optional weights and signs.

The expression is a sequence of terms joined by + and -. Each term is a
word optionally preceded by a weight (default 1). Subtracted terms pull
the query away from that word.

Examples:
  alchemyd mix "fire + water"
  alchemyd mix "0.5 cow + 0.1 bull - 0.2 udder"
  alchemyd mix "king - man + woman" -k 3`,
	Args: cobra.ExactArgs(1),
	RunE: runMix,
}

func runMix(cmd *cobra.Command, args []string) error {
	terms, err := parseMixExpression(args[0])
	if err != nil {
		exitWithError(ExitError, "parsing expression: %v", err)
	}

	cfg := mustLoadConfig()
	r := mustNewResolver(cfg, mustLoadVocabulary(cfg))

	matches, err := r.Mix(terms, mixK)
	if err != nil {
		exitWithError(ExitDataError, "mix %q: %v", args[0], err)
	}

	if humanOutput {
		printMatchesHuman(matches)
		return nil
	}
	return outputJSON(MatchesResponse{Query: args[0], Matches: matches})
}

// parseMixExpression parses "0.5 cow + 0.1 bull - 0.2 udder" into mix
// terms. Tokens are whitespace-separated; a bare number sets the weight
// of the word that follows it.
func parseMixExpression(expr string) ([]resolver.MixTerm, error) {
	var (
		terms     []resolver.MixTerm
		weight    float64
		haveW     bool
		subtract  bool
		pendingOp bool
	)

	for _, tok := range strings.Fields(expr) {
		switch tok {
		case "+", "-":
			if haveW {
				return nil, fmt.Errorf("weight %g is not followed by a word", weight)
			}
			if len(terms) == 0 && tok == "-" {
				return nil, fmt.Errorf("expression cannot start with -")
			}
			subtract = tok == "-"
			pendingOp = true
			continue
		}

		if w, err := strconv.ParseFloat(tok, 64); err == nil {
			if haveW {
				return nil, fmt.Errorf("consecutive weights %g and %g", weight, w)
			}
			weight, haveW = w, true
			continue
		}

		term := resolver.MixTerm{Word: tok, Weight: 1, Subtract: subtract}
		if haveW {
			term.Weight = float32(weight)
		}
		terms = append(terms, term)
		haveW, subtract, pendingOp = false, false, false
	}

	if haveW {
		return nil, fmt.Errorf("trailing weight %g has no word", weight)
	}
	if pendingOp {
		return nil, fmt.Errorf("trailing operator has no word")
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return terms, nil
}
