package embedding

import (
	"context"

	"github.com/philippgille/chromem-go"
)

const defaultOllamaModel = "nomic-embed-text"

// OllamaModel talks to a local Ollama server through chromem's embedding func.
type OllamaModel struct {
	model string
	embed chromem.EmbeddingFunc
}

func NewOllamaModel(cfg Config) (*OllamaModel, error) {
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}

	return &OllamaModel{
		model: model,
		embed: chromem.NewEmbeddingFuncOllama(model, cfg.BaseURL),
	}, nil
}

func (m *OllamaModel) Name() string {
	return "ollama/" + m.model
}

func (m *OllamaModel) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.embed(ctx, text)
}
