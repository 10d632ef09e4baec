package embedder

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	domain "github.com/yanqian/complaint-intake/internal/domain/answering"
)

// DeterministicEmbedder avoids network calls by hashing words into a fixed-size vector.
// Texts sharing vocabulary land close together, which is enough to rank chunks offline.
type DeterministicEmbedder struct {
	dim int
}

// NewDeterministicEmbedder constructs the embedder.
func NewDeterministicEmbedder(dim int) *DeterministicEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &DeterministicEmbedder{dim: dim}
}

// Embed converts each text into a bag-of-words vector.
func (e *DeterministicEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector := make([]float32, e.dim)
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, word := range words {
			hash := fnv.New32a()
			_, _ = hash.Write([]byte(word))
			vector[hash.Sum32()%uint32(e.dim)]++
		}
		vectors[i] = vector
	}
	return vectors, nil
}

var _ domain.Embedder = (*DeterministicEmbedder)(nil)
