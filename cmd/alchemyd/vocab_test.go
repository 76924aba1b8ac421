package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/yegorpanin/alchemy/internal/vocab"
)

func newCheckVocab(t *testing.T) *vocab.Store {
	t.Helper()
	dir := t.TempDir()

	wordsPath := filepath.Join(dir, "words.list")
	if err := os.WriteFile(wordsPath, []byte("fire\nwater\nsteam\n"), 0644); err != nil {
		t.Fatal(err)
	}
	vecPath := filepath.Join(dir, "vectors.alcv")
	err := vocab.WriteVectors(vecPath, [][]float32{
		{1, 0},
		{0, 1},
		{0.7, 0.7},
	})
	if err != nil {
		t.Fatal(err)
	}

	v, err := vocab.Load(wordsPath, vecPath)
	if err != nil {
		t.Fatalf("loading vocabulary: %v", err)
	}
	return v
}

func TestCheckWordsPreservesOrder(t *testing.T) {
	v := newCheckVocab(t)

	got := checkWords(v, []string{"water", "Phlogiston", "FIRE", "steam"})
	want := []WordCheck{
		{Word: "water", Known: true},
		{Word: "phlogiston", Known: false},
		{Word: "fire", Known: true},
		{Word: "steam", Known: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("checkWords = %+v, want %+v", got, want)
	}
}
