package chromem

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/nafee3/nafee3/vector"
)

const (
	payloadKey = "payload"
	denseKey   = "dense"
)

var errEmbeddingRequired = errors.New("embeddings must be supplied by the caller")

func NewChromemVectorDB(cfg vector.Config) (vector.VectorDB, error) {
	var db *chromem.DB
	if !cfg.Persistent {
		db = chromem.NewDB()
	} else {
		d, err := chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, err
		}

		db = d
	}

	return &chromemVectorDB{db}, nil
}

type chromemVectorDB struct {
	db *chromem.DB
}

func (vector *chromemVectorDB) Collection(ctx context.Context, cfg vector.CollectionConfig) (vector.Collection, error) {
	metadata := map[string]string{
		"dimension": strconv.Itoa(cfg.Dimension),
		"id_field":  cfg.IDField,
	}

	// Vectors always come from the embedding provider, never from chromem.
	noEmbedding := func(context.Context, string) ([]float32, error) {
		return nil, errEmbeddingRequired
	}

	c, err := vector.db.GetOrCreateCollection(cfg.Name, metadata, noEmbedding)
	if err != nil {
		return nil, err
	}

	return &collection{c, cfg}, nil
}

func (vector *chromemVectorDB) Close() error {
	return nil
}

type collection struct {
	collection *chromem.Collection
	cfg        vector.CollectionConfig
}

func (c *collection) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	// GetByID is an exact map lookup; its only error is a missing document.
	document, err := c.collection.GetByID(ctx, id)
	if err != nil {
		return false, nil
	}

	return document.Metadata[c.cfg.IDField] == id, nil
}

func (c *collection) Upsert(ctx context.Context, point vector.Point) error {
	if err := vector.CheckDimension(point.Vector, c.cfg.Dimension); err != nil {
		return err
	}

	bs, err := json.Marshal(point.Payload)
	if err != nil {
		return err
	}

	document := chromem.Document{
		ID: point.ID,
		Metadata: map[string]string{
			c.cfg.IDField: point.ID,
			payloadKey:    string(bs),
			denseKey:      dense(point.Vector),
		},
		Embedding: point.Vector,
	}

	return c.collection.AddDocument(ctx, document)
}

func (c *collection) Get(ctx context.Context, id string) (vector.Point, error) {
	if id == "" {
		return vector.Point{}, vector.ErrPointNotFound
	}

	document, err := c.collection.GetByID(ctx, id)
	if err != nil {
		return vector.Point{}, vector.ErrPointNotFound
	}

	payload, err := decodePayload(document.Metadata)
	if err != nil {
		return vector.Point{}, err
	}

	return vector.Point{
		ID:      document.ID,
		Payload: payload,
	}, nil
}

func (c *collection) Delete(ctx context.Context, id string) error {
	return c.collection.Delete(ctx, nil, nil, id)
}

func (c *collection) Query(ctx context.Context, embedding []float32, k int) ([]vector.ScoredPoint, error) {
	if err := vector.CheckDimension(embedding, c.cfg.Dimension); err != nil {
		return nil, err
	}

	count := c.collection.Count()
	if count == 0 || k <= 0 {
		return []vector.ScoredPoint{}, nil
	}

	if k > count {
		k = count
	}

	// Zero vectors have no direction and are never neighbours of anything.
	where := map[string]string{denseKey: "1"}

	results, err := c.collection.QueryEmbedding(ctx, embedding, k, where, nil)
	if err != nil {
		return nil, err
	}

	points := make([]vector.ScoredPoint, 0, len(results))
	for _, result := range results {
		if math.IsNaN(float64(result.Similarity)) {
			continue
		}

		payload, err := decodePayload(result.Metadata)
		if err != nil {
			return nil, err
		}

		points = append(points, vector.ScoredPoint{
			Point: vector.Point{
				ID:      result.ID,
				Payload: payload,
			},
			Score: result.Similarity,
		})
	}

	return points, nil
}

func dense(embedding []float32) string {
	for _, v := range embedding {
		if v != 0 {
			return "1"
		}
	}

	return "0"
}

func decodePayload(metadata map[string]string) (map[string]any, error) {
	raw, ok := metadata[payloadKey]
	if !ok {
		return map[string]any{}, nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, err
	}

	return payload, nil
}
