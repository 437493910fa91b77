package embedding

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/minio/highwayhash"
)

var hashKey = []byte("nafee3-profile-embedding-hashkey")

const (
	wordWeight    = 1.0
	trigramWeight = 0.5
)

// HashModel is an offline feature-hashing model. Word tokens and character
// trigrams are hashed into signed buckets and the result is L2 normalised, so
// texts that share words or word fragments have positive cosine similarity.
type HashModel struct {
	dimension int
}

func NewHashModel(dimension int) (*HashModel, error) {
	if dimension <= 0 {
		return nil, ErrInvalidDimension
	}

	return &HashModel{dimension}, nil
}

func (m *HashModel) Name() string {
	return "hash"
}

func (m *HashModel) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, m.dimension)

	for _, token := range tokenize(text) {
		m.add(vec, "w:"+token, wordWeight)

		for _, gram := range trigrams(token) {
			m.add(vec, "g:"+gram, trigramWeight)
		}
	}

	normalize(vec)
	return vec, nil
}

func (m *HashModel) add(vec []float32, feature string, weight float32) {
	h := highwayhash.Sum64([]byte(feature), hashKey)

	idx := h % uint64(len(vec))
	if h>>63 == 1 {
		weight = -weight
	}

	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func trigrams(token string) []string {
	runes := []rune("#" + token + "#")
	if len(runes) < 3 {
		return nil
	}

	grams := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+3]))
	}

	return grams
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	if sum == 0 {
		return
	}

	norm := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= norm
	}
}
