package vocab

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeFixture writes a words file and a matching vector file into dir.
func writeFixture(t *testing.T, dir string, words []string, vecs [][]float32) (string, string) {
	t.Helper()

	wordsPath := filepath.Join(dir, "words.list")
	var data []byte
	for _, w := range words {
		data = append(data, w...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(wordsPath, data, 0644); err != nil {
		t.Fatalf("writing words list: %v", err)
	}

	vecPath := filepath.Join(dir, "vectors.alcv")
	if err := WriteVectors(vecPath, vecs); err != nil {
		t.Fatalf("writing vectors: %v", err)
	}

	return wordsPath, vecPath
}

func TestLoadAndLookup(t *testing.T) {
	dir := t.TempDir()
	wordsPath, vecPath := writeFixture(t, dir,
		[]string{"Fire", "water", "steam"},
		[][]float32{{1, 0}, {0, 1}, {0.7, 0.7}},
	)

	s, err := Load(wordsPath, vecPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if s.Dim() != 2 {
		t.Errorf("Dim() = %d, want 2", s.Dim())
	}

	// Words are canonicalized at load; lookups canonicalize too.
	c, err := s.Lookup("  FIRE ")
	if err != nil {
		t.Fatalf("Lookup(FIRE): %v", err)
	}
	if c.Word != "fire" || c.Slot != 0 {
		t.Errorf("Lookup(FIRE) = %+v, want word=fire slot=0", c)
	}
	if c.Vector[0] != 1 || c.Vector[1] != 0 {
		t.Errorf("Lookup(FIRE).Vector = %v, want [1 0]", c.Vector)
	}

	if !s.Has("steam") {
		t.Error("Has(steam) = false, want true")
	}
	if s.Has("lava") {
		t.Error("Has(lava) = true, want false")
	}

	_, err = s.Vector("lava")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Vector(lava) error = %v, want ErrNotFound", err)
	}
}

func TestLoadCardinalityMismatch(t *testing.T) {
	dir := t.TempDir()
	wordsPath, vecPath := writeFixture(t, dir,
		[]string{"fire", "water", "steam"},
		[][]float32{{1, 0}, {0, 1}},
	)

	_, err := Load(wordsPath, vecPath)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("Load with 3 words / 2 vectors: error = %v, want ErrLoad", err)
	}
}

func TestLoadMalformedVectorFile(t *testing.T) {
	dir := t.TempDir()
	wordsPath, vecPath := writeFixture(t, dir,
		[]string{"fire"},
		[][]float32{{1, 0}},
	)

	tests := []struct {
		name    string
		corrupt func(t *testing.T) string
	}{
		{
			name: "bad magic",
			corrupt: func(t *testing.T) string {
				p := filepath.Join(dir, "badmagic")
				if err := os.WriteFile(p, []byte("NOTAVEC\x00\x00\x00\x00"), 0644); err != nil {
					t.Fatal(err)
				}
				return p
			},
		},
		{
			name: "truncated data",
			corrupt: func(t *testing.T) string {
				data, err := os.ReadFile(vecPath)
				if err != nil {
					t.Fatal(err)
				}
				p := filepath.Join(dir, "truncated")
				if err := os.WriteFile(p, data[:len(data)-3], 0644); err != nil {
					t.Fatal(err)
				}
				return p
			},
		},
		{
			name: "trailing garbage",
			corrupt: func(t *testing.T) string {
				data, err := os.ReadFile(vecPath)
				if err != nil {
					t.Fatal(err)
				}
				p := filepath.Join(dir, "trailing")
				if err := os.WriteFile(p, append(data, 0xBE, 0xEF), 0644); err != nil {
					t.Fatal(err)
				}
				return p
			},
		},
		{
			name: "missing file",
			corrupt: func(t *testing.T) string {
				return filepath.Join(dir, "does-not-exist")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(wordsPath, tt.corrupt(t))
			if !errors.Is(err, ErrLoad) {
				t.Errorf("Load: error = %v, want ErrLoad", err)
			}
		})
	}
}

func TestLoadEmptyWordsList(t *testing.T) {
	dir := t.TempDir()
	wordsPath := filepath.Join(dir, "empty.list")
	if err := os.WriteFile(wordsPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	vecPath := filepath.Join(dir, "vectors.alcv")
	if err := WriteVectors(vecPath, [][]float32{{1}}); err != nil {
		t.Fatal(err)
	}

	_, err := Load(wordsPath, vecPath)
	if !errors.Is(err, ErrLoad) {
		t.Errorf("Load with empty words list: error = %v, want ErrLoad", err)
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Fire", "fire"},
		{"  WATER\t", "water"},
		{"steam", "steam"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDuplicateWordsKeepFirstSlot(t *testing.T) {
	dir := t.TempDir()
	wordsPath, vecPath := writeFixture(t, dir,
		[]string{"fire", "fire", "water"},
		[][]float32{{1, 0}, {0.5, 0.5}, {0, 1}},
	)

	s, err := Load(wordsPath, vecPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, err := s.Lookup("fire")
	if err != nil {
		t.Fatalf("Lookup(fire): %v", err)
	}
	if c.Slot != 0 {
		t.Errorf("duplicate word resolved to slot %d, want 0", c.Slot)
	}
}
