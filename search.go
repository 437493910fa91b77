package nafee3

import (
	"cmp"
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/nafee3/nafee3/embedding"
	"github.com/nafee3/nafee3/vector"
)

type Candidate struct {
	Payload map[string]any
	Score   float64
}

// SearchEngine runs nearest neighbour queries against the dense vector.
type SearchEngine struct {
	collection vector.Collection
	embedder   embedding.Embedder
	log        *zap.Logger
}

func NewSearchEngine(collection vector.Collection, embedder embedding.Embedder) *SearchEngine {
	return &SearchEngine{
		collection: collection,
		embedder:   embedder,
		log: zap.L().With(
			zap.String("service", "search"),
		),
	}
}

// Search returns at most topK candidates with score >= threshold, highest
// score first. The threshold is applied to the topK list the store returns,
// not pushed into the index query. Failures are logged and yield no
// candidates.
func (e *SearchEngine) Search(ctx context.Context, text string, threshold float64, topK int) []Candidate {
	log := e.log.With(
		zap.String("action", "search"),
		zap.Float64("threshold", threshold),
		zap.Int("top_k", topK),
	)

	candidates := make([]Candidate, 0)
	if topK <= 0 {
		return candidates
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		log.Error(err.Error())
		return candidates
	}

	// Cosine similarity is undefined for the zero vector.
	if embedding.IsZero(vec) {
		return candidates
	}

	points, err := e.collection.Query(ctx, vec, topK)
	if err != nil {
		log.Error(err.Error())
		return candidates
	}

	for _, point := range points {
		score := float64(point.Score)
		if !(score >= threshold) {
			continue
		}

		candidates = append(candidates, Candidate{
			Payload: point.Payload,
			Score:   score,
		})
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	return candidates
}
