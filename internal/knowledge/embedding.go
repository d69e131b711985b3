package knowledge

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/philippgille/chromem-go"
)

// MockEmbeddingModel names the offline embedding so its index never collides with a real one.
const MockEmbeddingModel = "mock-hashed-bow"

const hashedDims = 256

// NewEmbeddingFunc returns the Cohere embedding function for model.
func NewEmbeddingFunc(apiKey, model string) chromem.EmbeddingFunc {
	return chromem.NewEmbeddingFuncCohere(apiKey, chromem.EmbeddingModelCohere(model))
}

// HashedEmbedding is a deterministic bag-of-words embedding used with mocks and in tests.
// Texts sharing words end up close to each other.
func HashedEmbedding(_ context.Context, text string) ([]float32, error) {
	text = strings.TrimPrefix(text, chromem.InputTypeCohereSearchQueryPrefix)
	vec := make([]float32, hashedDims)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%hashedDims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}

	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec, nil
}
