package service

import (
	"encoding/binary"
	"math"
	"strings"
	"unicode"

	pgvector "github.com/pgvector/pgvector-go"
	"golang.org/x/crypto/blake2b"

	"github.com/parksanggeon/smart-recipe-generator/internal/model"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// EmbeddingServiceInterface turns text into a search vector
type EmbeddingServiceInterface interface {
	GenerateEmbedding(text string) (pgvector.Vector, error)
}

// EmbeddingService hashes words into a fixed-width vector
type EmbeddingService struct{}

func NewEmbeddingService() *EmbeddingService {
	return &EmbeddingService{}
}

func (EmbeddingService) GenerateEmbedding(text string) (pgvector.Vector, error) {
	return GenerateEmbedding(text), nil
}

// GenerateEmbedding returns a deterministic bag-of-words embedding. Each
// lowercased word is hashed to one signed dimension; the result is L2
// normalized so that distance reflects shared vocabulary.
func GenerateEmbedding(text string) pgvector.Vector {
	vec := make([]float32, model.EmbeddingDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		sum := blake2b.Sum256([]byte(w))
		idx := binary.BigEndian.Uint32(sum[:4]) % model.EmbeddingDimensions
		if sum[4]&1 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return pgvector.NewVector(vec)
}

// recipeText is the text a recipe is embedded from
func recipeText(c types.CandidateRecipe) string {
	parts := []string{c.Name}
	parts = append(parts, c.IngredientNames()...)
	parts = append(parts, c.DietaryPreference...)
	return strings.Join(parts, " ")
}
