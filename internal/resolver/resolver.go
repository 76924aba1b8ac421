// Package resolver derives result concepts from vocabulary embeddings:
// the deterministic pair-combination used by the discovery pipeline, plus
// the read-only similarity queries (similar, analogy, mix, between).
package resolver

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/yegorpanin/alchemy/internal/vocab"
)

// Errors returned by resolver operations.
var (
	// ErrNoResult means the candidate scan exhausted its depth without an
	// admissible word.
	ErrNoResult = errors.New("no admissible result within scan depth")
)

// DefaultScanDepth bounds how many nearest candidates Combine inspects
// before giving up. Excluded candidates (the inputs themselves, blocked
// or blank entries) consume depth.
const DefaultScanDepth = 16

// Match is a scored vocabulary word.
type Match struct {
	Word  string  `json:"word"`
	Score float32 `json:"score"`
}

// Resolver performs similarity searches over an immutable vocabulary.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	vocab     *vocab.Store
	blocked   map[string]bool
	scanDepth int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithScanDepth overrides the candidate scan depth for Combine.
func WithScanDepth(k int) Option {
	return func(r *Resolver) {
		if k > 0 {
			r.scanDepth = k
		}
	}
}

// WithBlocklist marks words that Combine must never return.
func WithBlocklist(words []string) Option {
	return func(r *Resolver) {
		for _, w := range words {
			if c := vocab.Canonical(w); c != "" {
				r.blocked[c] = true
			}
		}
	}
}

// New creates a Resolver over the given vocabulary.
func New(v *vocab.Store, opts ...Option) *Resolver {
	r := &Resolver{
		vocab:     v,
		blocked:   make(map[string]bool),
		scanDepth: DefaultScanDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadBlocklist reads a blocklist file (one word per line) for use with
// WithBlocklist. A missing file is not an error when path is empty.
func LoadBlocklist(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening blocklist: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if w := vocab.Canonical(scanner.Text()); w != "" {
			words = append(words, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading blocklist: %w", err)
	}
	return words, nil
}

// Combine derives the result concept for a pair of words.
//
// The query vector is the unit-normalized sum of the two unit-normalized
// input embeddings, which makes the operation symmetric: Combine(a, b)
// and Combine(b, a) always agree. Candidates are ranked by cosine
// similarity to the query, ties broken by lowest slot, and the first
// candidate that is not an input word, not blocked, and not blank wins.
// If no candidate within the scan depth is admissible, ErrNoResult.
func (r *Resolver) Combine(wordA, wordB string) (Match, error) {
	a, err := r.vocab.Lookup(wordA)
	if err != nil {
		return Match{}, err
	}
	b, err := r.vocab.Lookup(wordB)
	if err != nil {
		return Match{}, err
	}

	query := normalized(sumVectors(normalized(a.Vector), normalized(b.Vector)))

	candidates := r.rank(query)
	depth := r.scanDepth
	if depth > len(candidates) {
		depth = len(candidates)
	}
	for _, c := range candidates[:depth] {
		word := r.vocab.WordAt(c.slot)
		if word == "" || word == a.Word || word == b.Word || r.blocked[word] {
			continue
		}
		return Match{Word: word, Score: c.score}, nil
	}
	return Match{}, fmt.Errorf("combining %q and %q: %w", a.Word, b.Word, ErrNoResult)
}

// candidate pairs a vocabulary slot with its score for ranking.
type candidate struct {
	slot  int
	score float32
}

// rank scores every vocabulary slot against the query vector and returns
// the slots ordered by descending score, ties by ascending slot. The slot
// tie-break keeps results identical across replicas.
func (r *Resolver) rank(query []float32) []candidate {
	n := r.vocab.Len()
	out := make([]candidate, n)
	for slot := 0; slot < n; slot++ {
		out[slot] = candidate{slot: slot, score: Cosine(query, r.vocab.VectorAt(slot))}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].slot < out[j].slot
	})
	return out
}

// sumVectors returns the elementwise sum of a and b.
func sumVectors(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}
