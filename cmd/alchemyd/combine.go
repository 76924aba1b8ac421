package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/yegorpanin/alchemy/internal/store"
)

var (
	combineUserID   string
	combineUserName string
)

func init() {
	combineCmd.Flags().StringVarP(&combineUserID, "user", "u", "cli", "User ID to credit with the discovery")
	combineCmd.Flags().StringVar(&combineUserName, "name", "", "Display name for the user")
	rootCmd.AddCommand(combineCmd)
}

var combineCmd = &cobra.Command{
	Use:   "combine <word-a> <word-b>",
	Short: "Combine two words and record the discovery",
	Long: `Resolve the combination of two vocabulary words.

The result is looked up in the shared store first; on a miss the
resolver computes it and the store arbitrates first discovery. The
first caller to commit a pair is credited permanently.

Examples:
  alchemyd combine fire water
  alchemyd combine fire water --user alice --name Alice`,
	Args: cobra.ExactArgs(2),
	RunE: runCombine,
}

func runCombine(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	ctx := cmd.Context()

	eng, st := mustNewEngine(ctx, cfg, quietLogger())
	defer st.Close()

	out, err := eng.ResolveCombination(ctx, args[0], args[1],
		store.User{ID: combineUserID, Name: combineUserName})
	if err != nil {
		code := ExitDataError
		if errors.Is(err, store.ErrUnavailable) {
			code = ExitStoreError
		}
		exitWithError(code, "combining %q and %q: %v", args[0], args[1], err)
	}

	if humanOutput {
		outputHuman("%s + %s = %s\n", out.Key.A, out.Key.B, out.Result)
		if out.FirstDiscovery {
			outputHuman("first discovery!\n")
		} else {
			outputHuman("first discovered by %s\n", out.Discoverer)
		}
		return nil
	}
	return outputJSON(out)
}
