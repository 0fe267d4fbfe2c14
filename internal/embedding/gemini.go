package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is the default Gemini embedding model
const DefaultGeminiModel = "text-embedding-004"

// GeminiProvider embeds through the Gemini BatchEmbedContents API
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini embedder. A missing API key is a permanent failure.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, &UnavailableError{Provider: KindGemini, Message: "API key is required", Permanent: true}
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

// Embed sends all texts as one batch
func (p *GeminiProvider) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := p.client.EmbeddingModel(p.model)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}

	vectors := make([]Vector, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("%w: nil embedding in response", ErrCountMismatch)
		}
		vectors = append(vectors, Vector(e.Values))
	}
	if err := checkBatch(texts, vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Dimension returns the output size of text-embedding-004
func (p *GeminiProvider) Dimension() int {
	if p.model == DefaultGeminiModel {
		return 768
	}
	return 0
}

// ModelName returns the embedding model
func (p *GeminiProvider) ModelName() string {
	return p.model
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
