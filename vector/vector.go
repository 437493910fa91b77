package vector

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrPointNotFound      = errors.New("point not found")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
	ErrUnsupportedBackend = errors.New("unsupported vector backend")
)

type Backend string

const (
	BackendChromem    Backend = "chromem"
	BackendQdrant     Backend = "qdrant"
	BackendOpenSearch Backend = "opensearch"
)

type Config struct {
	Backend    Backend          `yaml:"backend"`
	Persistent bool             `yaml:"persistent"`
	Path       string           `yaml:"path"`
	Qdrant     QdrantConfig     `yaml:"qdrant"`
	OpenSearch OpenSearchConfig `yaml:"opensearch"`
}

type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"apiKey"`
	UseTLS bool   `yaml:"useTLS"`
}

type OpenSearchConfig struct {
	Addresses   []string `yaml:"addresses"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	InsecureSSL bool     `yaml:"insecureSSL"`
}

// CollectionConfig describes the schema of a collection: one keyword indexed
// identifier field and one named dense vector compared by cosine similarity.
type CollectionConfig struct {
	Name       string
	Dimension  int
	VectorName string
	IDField    string
}

type VectorDB interface {
	// Collection opens the named collection, creating it together with its
	// identifier index when it does not exist yet. Existing collections are
	// never altered.
	Collection(ctx context.Context, cfg CollectionConfig) (Collection, error)

	Close() error
}

type Collection interface {
	// Exists reports whether a point whose identifier field equals id is
	// stored. The match is exact.
	Exists(ctx context.Context, id string) (bool, error)

	// Upsert writes the payload and vector of a point in one call.
	Upsert(ctx context.Context, point Point) error

	// Get returns the payload of a point by its native id, or ErrPointNotFound.
	Get(ctx context.Context, id string) (Point, error)

	Delete(ctx context.Context, id string) error

	// Query returns up to k nearest neighbours ordered by descending score.
	Query(ctx context.Context, embedding []float32, k int) ([]ScoredPoint, error)
}

type Point struct {
	ID      string         `json:"id"`
	Payload map[string]any `json:"payload"`
	Vector  []float32      `json:"vector,omitempty"`
}

type ScoredPoint struct {
	Point
	Score float32 `json:"score"`
}

func CheckDimension(embedding []float32, dimension int) error {
	if dimension > 0 && len(embedding) != dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(embedding), dimension)
	}

	return nil
}
