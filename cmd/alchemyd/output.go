package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yegorpanin/alchemy/internal/resolver"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MatchesResponse is the response for vector query commands.
type MatchesResponse struct {
	Query   string           `json:"query"`
	Matches []resolver.Match `json:"matches"`
}

// printMatchesHuman prints ranked matches in human-readable format.
func printMatchesHuman(matches []resolver.Match) {
	for i, m := range matches {
		outputHuman("%d. [%.3f] %s\n", i+1, m.Score, m.Word)
	}
}
