package vocab

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Vector file layout: a 6-byte magic, two little-endian uint32 header
// fields (dimension, count), then count*dimension little-endian float32
// values in slot order. The preprocessing step that builds the embedding
// index exports this flat layout alongside the words list.
const vectorMagic = "ALCV1\n"

// readVectors loads the embedding matrix from path.
func readVectors(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening vector file: %v", err)
	}
	defer f.Close()

	magic := make([]byte, len(vectorMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, 0, fmt.Errorf("reading vector file header: %v", err)
	}
	if string(magic) != vectorMagic {
		return nil, 0, fmt.Errorf("%s is not a vector file (bad magic)", path)
	}

	var header struct {
		Dim   uint32
		Count uint32
	}
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return nil, 0, fmt.Errorf("reading vector file header: %v", err)
	}
	if header.Dim == 0 || header.Count == 0 {
		return nil, 0, fmt.Errorf("vector file %s declares %d vectors of dimension %d", path, header.Count, header.Dim)
	}

	dim := int(header.Dim)
	count := int(header.Count)

	// One contiguous read, then slice per row.
	flat := make([]float32, dim*count)
	buf := make([]byte, 4*dim)
	r := io.Reader(f)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, 0, fmt.Errorf("vector %d of %d truncated: %v", i, count, err)
		}
		row := flat[i*dim : (i+1)*dim]
		for j := range row {
			bits := binary.LittleEndian.Uint32(buf[4*j:])
			v := math.Float32frombits(bits)
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return nil, 0, fmt.Errorf("vector %d has non-finite component %d", i, j)
			}
			row[j] = v
		}
	}

	// Trailing bytes mean the header lied about the count.
	if n, _ := f.Read(make([]byte, 1)); n != 0 {
		return nil, 0, fmt.Errorf("vector file %s has data beyond the declared %d vectors", path, count)
	}

	vecs := make([][]float32, count)
	for i := range vecs {
		vecs[i] = flat[i*dim : (i+1)*dim]
	}
	return vecs, dim, nil
}

// WriteVectors writes an embedding matrix in the engine's vector file
// layout. Used by export tooling and tests; the engine itself only reads.
func WriteVectors(path string, vecs [][]float32) error {
	if len(vecs) == 0 {
		return fmt.Errorf("no vectors to write")
	}
	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating vector file: %v", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte(vectorMagic)); err != nil {
		return err
	}
	header := struct {
		Dim   uint32
		Count uint32
	}{Dim: uint32(dim), Count: uint32(len(vecs))}
	if err := binary.Write(f, binary.LittleEndian, &header); err != nil {
		return err
	}

	buf := make([]byte, 4*dim)
	for _, v := range vecs {
		for j, x := range v {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(x))
		}
		if _, err := f.Write(buf); err != nil {
			return err
		}
	}
	return f.Close()
}
