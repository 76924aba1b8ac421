// Package vocab holds the immutable vocabulary loaded at process start:
// the word list and its companion embedding matrix.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Errors returned by vocabulary operations.
var (
	// ErrLoad wraps any startup failure; a process that sees it must not serve.
	ErrLoad = errors.New("vocabulary load failed")

	// ErrNotFound is returned when a word is absent from the vocabulary.
	ErrNotFound = errors.New("word not found in vocabulary")
)

// Concept is a single vocabulary entry: a canonical word, its embedding,
// and its stable slot (line number in the words file, 0-based).
type Concept struct {
	Word   string
	Slot   int
	Vector []float32
}

// Store is the in-memory vocabulary. Immutable after Load, so it is safe
// for concurrent reads without locking.
type Store struct {
	words []string
	slots map[string]int
	vecs  [][]float32
	dim   int
}

// Canonical returns the canonical form of a word identifier:
// lowercased with surrounding whitespace removed.
func Canonical(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// Load reads the vocabulary list and the embedding matrix and binds them
// by position: the Nth word owns the Nth vector. The two files must agree
// on cardinality; any mismatch or malformed record fails with ErrLoad.
func Load(wordsPath, vectorsPath string) (*Store, error) {
	words, err := readWords(wordsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	vecs, dim, err := readVectors(vectorsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	if len(vecs) != len(words) {
		return nil, fmt.Errorf("%w: %d vectors for %d words (%s vs %s)",
			ErrLoad, len(vecs), len(words), vectorsPath, wordsPath)
	}

	slots := make(map[string]int, len(words))
	for i, w := range words {
		if _, dup := slots[w]; dup {
			// First occurrence keeps the slot; later duplicates are unreachable
			// by lookup but still occupy their line in the matrix.
			continue
		}
		slots[w] = i
	}

	return &Store{words: words, slots: slots, vecs: vecs, dim: dim}, nil
}

// readWords reads one canonical word per line. Blank lines keep their slot
// (the matrix row still exists) but are never returned by lookups.
func readWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening words list: %v", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		words = append(words, Canonical(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading words list: %v", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("words list %s is empty", path)
	}
	return words, nil
}

// Len returns the number of vocabulary slots (including blank ones).
func (s *Store) Len() int {
	return len(s.words)
}

// Dim returns the embedding dimensionality.
func (s *Store) Dim() int {
	return s.dim
}

// Has reports whether the word is in the vocabulary.
func (s *Store) Has(word string) bool {
	w := Canonical(word)
	if w == "" {
		return false
	}
	_, ok := s.slots[w]
	return ok
}

// Lookup returns the concept for a word, or ErrNotFound.
func (s *Store) Lookup(word string) (Concept, error) {
	w := Canonical(word)
	slot, ok := s.slots[w]
	if !ok || w == "" {
		return Concept{}, fmt.Errorf("%q: %w", word, ErrNotFound)
	}
	return Concept{Word: w, Slot: slot, Vector: s.vecs[slot]}, nil
}

// Vector returns the embedding for a word, or ErrNotFound.
// The returned slice is shared and must not be mutated.
func (s *Store) Vector(word string) ([]float32, error) {
	c, err := s.Lookup(word)
	if err != nil {
		return nil, err
	}
	return c.Vector, nil
}

// WordAt returns the word occupying a slot. Empty string for blank slots.
func (s *Store) WordAt(slot int) string {
	if slot < 0 || slot >= len(s.words) {
		return ""
	}
	return s.words[slot]
}

// VectorAt returns the embedding stored at a slot.
// The returned slice is shared and must not be mutated.
func (s *Store) VectorAt(slot int) []float32 {
	if slot < 0 || slot >= len(s.vecs) {
		return nil
	}
	return s.vecs[slot]
}
