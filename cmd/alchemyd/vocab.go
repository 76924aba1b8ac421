package main

import (
	"github.com/spf13/cobra"

	"github.com/yegorpanin/alchemy/internal/vocab"
)

func init() {
	vocabCmd.AddCommand(vocabInfoCmd)
	vocabCmd.AddCommand(vocabCheckCmd)
	rootCmd.AddCommand(vocabCmd)
}

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Inspect the vocabulary files",
}

// VocabInfoResponse is the response for vocab info.
type VocabInfoResponse struct {
	Words     int    `json:"words"`
	Dimension int    `json:"dimension"`
	WordsPath string `json:"words_path"`
	VecPath   string `json:"vectors_path"`
}

var vocabInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show vocabulary size and vector dimension",
	Args:  cobra.NoArgs,
	RunE:  runVocabInfo,
}

func runVocabInfo(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	v := mustLoadVocabulary(cfg)

	if humanOutput {
		outputHuman("%d words, %d dimensions\n", v.Len(), v.Dim())
		return nil
	}
	return outputJSON(VocabInfoResponse{
		Words:     v.Len(),
		Dimension: v.Dim(),
		WordsPath: cfg.Vocabulary.Words,
		VecPath:   cfg.Vocabulary.Vectors,
	})
}

var vocabCheckCmd = &cobra.Command{
	Use:   "check <word>...",
	Short: "Check whether words are in the vocabulary",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVocabCheck,
}

// WordCheck reports whether one word is in the vocabulary.
type WordCheck struct {
	Word  string `json:"word"`
	Known bool   `json:"known"`
}

// checkWords canonicalizes each word and looks it up, preserving the
// argument order.
func checkWords(v *vocab.Store, words []string) []WordCheck {
	checks := make([]WordCheck, len(words))
	for i, w := range words {
		checks[i] = WordCheck{Word: vocab.Canonical(w), Known: v.Has(w)}
	}
	return checks
}

func runVocabCheck(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	v := mustLoadVocabulary(cfg)

	checks := checkWords(v, args)
	if humanOutput {
		for _, c := range checks {
			if c.Known {
				outputHuman("%s: known\n", c.Word)
			} else {
				outputHuman("%s: unknown\n", c.Word)
			}
		}
		return nil
	}
	return outputJSON(checks)
}
