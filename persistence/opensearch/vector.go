package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/nafee3/nafee3/vector"
)

const payloadField = "payload"

func NewOpenSearchVectorDB(cfg vector.OpenSearchConfig) (vector.VectorDB, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("opensearch: addresses is required")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Transport: transport,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}

	return &openSearchVectorDB{client}, nil
}

type openSearchVectorDB struct {
	client *opensearchapi.Client
}

func (db *openSearchVectorDB) Collection(ctx context.Context, cfg vector.CollectionConfig) (vector.Collection, error) {
	resp, err := db.client.Indices.Exists(ctx, opensearchapi.IndicesExistsReq{
		Indices: []string{cfg.Name},
	})

	switch {
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		body, err := json.Marshal(indexMapping(cfg))
		if err != nil {
			return nil, err
		}

		_, err = db.client.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
			Index: cfg.Name,
			Body:  bytes.NewReader(body),
		})

		if err != nil {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}

	case err != nil:
		return nil, fmt.Errorf("failed to check index: %w", err)
	}

	return &collection{db.client, cfg}, nil
}

func (db *openSearchVectorDB) Close() error {
	return nil
}

type collection struct {
	client *opensearchapi.Client
	cfg    vector.CollectionConfig
}

func (c *collection) Exists(ctx context.Context, id string) (bool, error) {
	body, err := json.Marshal(termQuery(c.cfg.IDField, id))
	if err != nil {
		return false, err
	}

	resp, err := c.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{c.cfg.Name},
		Body:    bytes.NewReader(body),
		Params: opensearchapi.SearchParams{
			Size:           opensearchapi.ToPointer(0),
			TrackTotalHits: true,
		},
	})

	if err != nil {
		return false, fmt.Errorf("count failed: %w", err)
	}

	return resp.Hits.Total.Value > 0, nil
}

func (c *collection) Upsert(ctx context.Context, point vector.Point) error {
	if err := vector.CheckDimension(point.Vector, c.cfg.Dimension); err != nil {
		return err
	}

	doc := map[string]any{
		c.cfg.IDField:    point.ID,
		payloadField:     point.Payload,
		c.cfg.VectorName: point.Vector,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = c.client.Index(ctx, opensearchapi.IndexReq{
		Index:      c.cfg.Name,
		DocumentID: point.ID,
		Body:       bytes.NewReader(body),
		Params:     opensearchapi.IndexParams{Refresh: "true"},
	})

	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}

	return nil
}

func (c *collection) Get(ctx context.Context, id string) (vector.Point, error) {
	resp, err := c.client.Document.Get(ctx, opensearchapi.DocumentGetReq{
		Index:      c.cfg.Name,
		DocumentID: id,
	})

	if err != nil {
		if resp != nil && resp.Inspect().Response != nil &&
			resp.Inspect().Response.StatusCode == http.StatusNotFound {
			return vector.Point{}, vector.ErrPointNotFound
		}

		return vector.Point{}, fmt.Errorf("failed to get document: %w", err)
	}

	if !resp.Found {
		return vector.Point{}, vector.ErrPointNotFound
	}

	payload, err := decodeSource(resp.Source)
	if err != nil {
		return vector.Point{}, err
	}

	return vector.Point{
		ID:      resp.ID,
		Payload: payload,
	}, nil
}

func (c *collection) Delete(ctx context.Context, id string) error {
	_, err := c.client.Document.Delete(ctx, opensearchapi.DocumentDeleteReq{
		Index:      c.cfg.Name,
		DocumentID: id,
		Params:     opensearchapi.DocumentDeleteParams{Refresh: "true"},
	})

	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

func (c *collection) Query(ctx context.Context, embedding []float32, k int) ([]vector.ScoredPoint, error) {
	if err := vector.CheckDimension(embedding, c.cfg.Dimension); err != nil {
		return nil, err
	}

	if k <= 0 {
		return []vector.ScoredPoint{}, nil
	}

	body, err := json.Marshal(knnQuery(c.cfg.VectorName, embedding, k))
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{c.cfg.Name},
		Body:    bytes.NewReader(body),
	})

	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	points := make([]vector.ScoredPoint, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		payload, err := decodeSource(hit.Source)
		if err != nil {
			continue
		}

		points = append(points, vector.ScoredPoint{
			Point: vector.Point{
				ID:      hit.ID,
				Payload: payload,
			},
			Score: cosineFromScore(hit.Score),
		})
	}

	return points, nil
}

func indexMapping(cfg vector.CollectionConfig) map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"index": map[string]any{
				"knn": true,
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				cfg.IDField: map[string]any{
					"type": "keyword",
				},
				payloadField: map[string]any{
					"type":    "object",
					"enabled": false,
				},
				cfg.VectorName: map[string]any{
					"type":      "knn_vector",
					"dimension": cfg.Dimension,
					"method": map[string]any{
						"name":       "hnsw",
						"engine":     "lucene",
						"space_type": "cosinesimil",
					},
				},
			},
		},
	}
}

func termQuery(field, value string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{field: value}},
				},
			},
		},
	}
}

func knnQuery(field string, embedding []float32, k int) map[string]any {
	return map[string]any{
		"size":    k,
		"_source": map[string]any{"excludes": []string{field}},
		"query": map[string]any{
			"knn": map[string]any{
				field: map[string]any{
					"vector": embedding,
					"k":      k,
				},
			},
		},
	}
}

// cosineFromScore maps the lucene cosinesimil score (1 + cos) / 2 back to cosine.
func cosineFromScore(score float32) float32 {
	return 2*score - 1
}

func decodeSource(source json.RawMessage) (map[string]any, error) {
	var doc struct {
		Payload map[string]any `json:"payload"`
	}

	if err := json.Unmarshal(source, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	if doc.Payload == nil {
		doc.Payload = map[string]any{}
	}

	return doc.Payload, nil
}
