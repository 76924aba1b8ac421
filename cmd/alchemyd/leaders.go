package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/yegorpanin/alchemy/internal/store"
)

var leadersTop int

func init() {
	leadersCmd.Flags().IntVar(&leadersTop, "top", 10, "Number of entries to show (0 for all)")
	rootCmd.AddCommand(leadersCmd)
	rootCmd.AddCommand(userCmd)
}

var leadersCmd = &cobra.Command{
	Use:   "leaders",
	Short: "Show the discovery leaderboard",
	Long: `List users ordered by first discoveries, then total
discoveries.

Examples:
  alchemyd leaders
  alchemyd leaders --top 25`,
	Args: cobra.NoArgs,
	RunE: runLeaders,
}

func runLeaders(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	ctx := cmd.Context()

	st := mustOpenStore(ctx, cfg)
	defer st.Close()

	entries, err := st.Leaderboard(ctx, leadersTop)
	if err != nil {
		exitWithError(ExitStoreError, "reading leaderboard: %v", err)
	}

	if humanOutput {
		for i, e := range entries {
			name := e.Name
			if name == "" {
				name = e.UserID
			}
			outputHuman("%d. %s  first: %d  total: %d\n", i+1, name, e.FirstDiscoveries, e.TotalDiscoveries)
		}
		return nil
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}
	return outputJSON(map[string]interface{}{"leaders": entries})
}

var userCmd = &cobra.Command{
	Use:   "user <id>",
	Short: "Show a user's discovery record",
	Long: `Show one user's leaderboard counters and collected words.

Examples:
  alchemyd user alice`,
	Args: cobra.ExactArgs(1),
	RunE: runUser,
}

func runUser(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	ctx := cmd.Context()

	st := mustOpenStore(ctx, cfg)
	defer st.Close()

	rec, err := st.GetUser(ctx, args[0])
	if err != nil {
		exitWithError(ExitStoreError, "reading user: %v", err)
	}
	if rec == nil {
		exitWithError(ExitDataError, "user %q not found", args[0])
	}

	if humanOutput {
		name := rec.Name
		if name == "" {
			name = rec.UserID
		}
		outputHuman("%s\n  first discoveries: %d\n  total discoveries: %d\n", name, rec.FirstDiscoveries, rec.TotalDiscoveries)
		if len(rec.Words) > 0 {
			outputHuman("  words: %s\n", strings.Join(rec.Words, ", "))
		}
		return nil
	}
	return outputJSON(rec)
}
