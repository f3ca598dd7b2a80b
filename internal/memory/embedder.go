package memory

import (
	"context"
	"fmt"
	"math"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/dyike/TradeCortex/config"
)

// NewEmbedder picks the embedding backend named by cfg.EmbeddingProvider.
func NewEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		key := cfg.OpenAIAPIKey
		if key == "" {
			key = cfg.APIKey()
		}
		return NewOpenAIEmbedder(cfg.EmbeddingBackendURL, key, cfg.EmbeddingModel)
	case "genai":
		return NewGenAIEmbedder(ctx, cfg.EmbeddingBackendURL, cfg.GoogleAPIKey, cfg.EmbeddingModel)
	case "local", "":
		return NewHashEmbedder(0), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}

// Cosine returns the cosine similarity of a and b, 0 when either is a zero
// vector or the dimensions differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
