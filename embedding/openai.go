package embedding

import (
	"context"
	"errors"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "text-embedding-3-small"

type OpenAIModel struct {
	client    openai.Client
	model     string
	dimension int
}

func NewOpenAIModel(cfg Config) (*OpenAIModel, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIModel{
		client:    openai.NewClient(opts...),
		model:     model,
		dimension: cfg.Dimension,
	}, nil
}

func (m *OpenAIModel) Name() string {
	return "openai/" + m.model
}

func (m *OpenAIModel) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: openai.EmbeddingModel(m.model),
	}

	if m.dimension > 0 {
		params.Dimensions = openai.Int(int64(m.dimension))
	}

	resp, err := m.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}

	embedding := resp.Data[0].Embedding

	vec := make([]float32, len(embedding))
	for i, v := range embedding {
		vec[i] = float32(v)
	}

	return vec, nil
}
