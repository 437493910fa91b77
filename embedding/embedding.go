// Package embedding turns text into fixed-length dense vectors.
//
// Every provider is wrapped so that empty text maps to the all-zero vector
// without reaching the model, and so that every returned vector has the
// dimension fixed at startup.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	ErrInvalidDimension    = errors.New("invalid embedding dimension")
	ErrEmptyEmbedding      = errors.New("empty embedding response")
)

type Provider string

const (
	ProviderHash   Provider = "hash"
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

const DefaultDimension = 768

type Config struct {
	Provider  Provider    `yaml:"provider"`
	Model     string      `yaml:"model"`
	BaseURL   string      `yaml:"baseURL"`
	APIKey    string      `yaml:"apiKey"`
	Dimension int         `yaml:"dimension"`
	Cache     CacheConfig `yaml:"cache"`
}

type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Embedder is the process-wide text to vector function.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Model is a raw embedding backend.
type Model interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// New builds the configured model and probes it once. Any failure here means
// the process cannot serve traffic.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	var (
		model Model
		err   error
	)

	dim := cfg.Dimension

	switch cfg.Provider {
	case ProviderHash, "":
		if dim == 0 {
			dim = DefaultDimension
		}

		model, err = NewHashModel(dim)

	case ProviderOpenAI:
		model, err = NewOpenAIModel(cfg)

	case ProviderOllama:
		model, err = NewOllamaModel(cfg)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}

	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		cached, err := NewRedisCache(ctx, cfg.Cache, dim, model)
		if err != nil {
			return nil, err
		}

		model = cached
	}

	return NewEmbedder(ctx, model, cfg.Dimension)
}

// NewEmbedder wraps a model. A zero dimension is taken from a probe embedding.
func NewEmbedder(ctx context.Context, model Model, dimension int) (Embedder, error) {
	if dimension < 0 {
		return nil, ErrInvalidDimension
	}

	probe, err := model.Embed(ctx, "probe")
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", model.Name(), err)
	}

	if len(probe) == 0 {
		return nil, fmt.Errorf("probe %s: %w", model.Name(), ErrEmptyEmbedding)
	}

	if dimension == 0 {
		dimension = len(probe)
	}

	if len(probe) != dimension {
		return nil, fmt.Errorf("probe %s: %w: got %d, want %d",
			model.Name(), ErrInvalidDimension, len(probe), dimension)
	}

	return &embedder{model, dimension}, nil
}

type embedder struct {
	model     Model
	dimension int
}

func (e *embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dimension), nil
	}

	vec, err := e.model.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if len(vec) != e.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidDimension, len(vec), e.dimension)
	}

	return vec, nil
}

func (e *embedder) Dimension() int {
	return e.dimension
}

func (e *embedder) Close() error {
	if closer, ok := e.model.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

// IsZero reports whether every component of vec is zero.
func IsZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}

	return true
}
