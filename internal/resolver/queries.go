package resolver

import (
	"errors"
	"fmt"
	"sort"
)

// Query validation errors.
var (
	ErrNoTerms        = errors.New("no terms to mix")
	ErrBadSimilarband = errors.New("min similarity exceeds max similarity")
)

// DefaultQueryLimit is the number of matches returned when a query asks
// for zero or fewer results.
const DefaultQueryLimit = 5

// SimilarWords returns up to k words nearest to the given word by cosine
// similarity, excluding the word itself. minSim and maxSim bound the
// similarity band; pass -1 to leave a bound open.
func (r *Resolver) SimilarWords(word string, k int, minSim, maxSim float32) ([]Match, error) {
	if minSim >= 0 && maxSim >= 0 && minSim > maxSim {
		return nil, ErrBadSimilarband
	}
	c, err := r.vocab.Lookup(word)
	if err != nil {
		return nil, err
	}

	k = clampLimit(k)
	matches := make([]Match, 0, k)
	for _, cand := range r.rank(c.Vector) {
		w := r.vocab.WordAt(cand.slot)
		if w == "" || w == c.Word {
			continue
		}
		if minSim >= 0 && cand.score < minSim {
			// Ranked descending, nothing further can pass the lower bound.
			break
		}
		if maxSim >= 0 && cand.score > maxSim {
			continue
		}
		matches = append(matches, Match{Word: w, Score: cand.score})
		if len(matches) == k {
			break
		}
	}
	return matches, nil
}

// Analogy answers "a is to b as c is to ?" by comparing the direction
// b-a against the direction d-c for every candidate d, ranked by cosine
// similarity of the two directions. The three input words are excluded.
func (r *Resolver) Analogy(wordA, wordB, wordC string, k int) ([]Match, error) {
	a, err := r.vocab.Lookup(wordA)
	if err != nil {
		return nil, err
	}
	b, err := r.vocab.Lookup(wordB)
	if err != nil {
		return nil, err
	}
	c, err := r.vocab.Lookup(wordC)
	if err != nil {
		return nil, err
	}

	direction := normalized(sub(b.Vector, a.Vector))

	k = clampLimit(k)
	results := make([]Match, 0, r.vocab.Len())
	for slot := 0; slot < r.vocab.Len(); slot++ {
		w := r.vocab.WordAt(slot)
		if w == "" || w == a.Word || w == b.Word || w == c.Word {
			continue
		}
		dirD := normalized(sub(r.vocab.VectorAt(slot), c.Vector))
		results = append(results, Match{Word: w, Score: dot(direction, dirD)})
	}
	sortMatchesDesc(results)
	return truncate(results, k), nil
}

// MixTerm is one contribution to a semantic blend. The weight is taken
// as given, so a zero-weight term contributes nothing to the blend but
// still excludes its word from the results.
type MixTerm struct {
	Word     string  `json:"word"`
	Weight   float32 `json:"weight"`
	Subtract bool    `json:"subtract"` // subtract instead of add
}

// Mix blends the semantics of several words. Each embedding is
// unit-normalized, scaled by its weight, then added or subtracted; when
// no term subtracts, the blend is the weighted mean instead of the raw
// sum. The result is renormalized and searched for nearest words,
// excluding the inputs.
func (r *Resolver) Mix(terms []MixTerm, k int) ([]Match, error) {
	if len(terms) == 0 {
		return nil, ErrNoTerms
	}

	inputs := make(map[string]bool, len(terms))
	var mixed []float32
	var totalWeight float32
	anySubtract := false
	for _, t := range terms {
		if t.Subtract {
			anySubtract = true
		}
	}

	for _, t := range terms {
		c, err := r.vocab.Lookup(t.Word)
		if err != nil {
			return nil, err
		}
		inputs[c.Word] = true

		unit := normalized(c.Vector)
		if mixed == nil {
			mixed = make([]float32, len(unit))
		}
		sign := float32(1)
		if t.Subtract {
			sign = -1
		}
		for i := range mixed {
			mixed[i] += sign * t.Weight * unit[i]
		}
		totalWeight += t.Weight
	}

	// Pure additive blends are averaged before renormalization, matching
	// the weighted-mean semantics of an operator-free mix.
	if !anySubtract && totalWeight > 0 {
		for i := range mixed {
			mixed[i] /= totalWeight
		}
	}
	mixed = normalized(mixed)

	k = clampLimit(k)
	matches := make([]Match, 0, k)
	for _, cand := range r.rank(mixed) {
		w := r.vocab.WordAt(cand.slot)
		if w == "" || inputs[w] {
			continue
		}
		matches = append(matches, Match{Word: w, Score: cand.score})
		if len(matches) == k {
			break
		}
	}
	return matches, nil
}

// Between finds words closest to the line segment between two embeddings,
// ranked by distance from each candidate to its projection on the line.
// Scores are distances, so lower is better; results are ascending.
func (r *Resolver) Between(wordA, wordB string, k int) ([]Match, error) {
	a, err := r.vocab.Lookup(wordA)
	if err != nil {
		return nil, err
	}
	b, err := r.vocab.Lookup(wordB)
	if err != nil {
		return nil, err
	}

	direction := normalized(sub(b.Vector, a.Vector))

	k = clampLimit(k)
	results := make([]Match, 0, r.vocab.Len())
	for slot := 0; slot < r.vocab.Len(); slot++ {
		w := r.vocab.WordAt(slot)
		if w == "" || w == a.Word || w == b.Word {
			continue
		}
		vec := r.vocab.VectorAt(slot)
		offset := dot(sub(vec, a.Vector), direction)
		projection := make([]float32, len(vec))
		for i := range projection {
			projection[i] = a.Vector[i] + offset*direction[i]
		}
		results = append(results, Match{Word: w, Score: distance(vec, projection)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return truncate(results, k), nil
}

func clampLimit(k int) int {
	if k <= 0 {
		return DefaultQueryLimit
	}
	return k
}

func sortMatchesDesc(m []Match) {
	sort.SliceStable(m, func(i, j int) bool {
		return m[i].Score > m[j].Score
	})
}

func truncate(m []Match, k int) []Match {
	if len(m) > k {
		return m[:k]
	}
	return m
}

// String renders a match for human output.
func (m Match) String() string {
	return fmt.Sprintf("%s (%.2f)", m.Word, m.Score)
}
