package memory

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/go-resty/resty/v2"
)

const defaultOpenAIEmbeddingURL = "https://api.openai.com/v1"

// OpenAIEmbedder calls an OpenAI compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client *resty.Client
	model  string
}

func NewOpenAIEmbedder(baseURL, apiKey, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai embedding api key is required")
	}
	if baseURL == "" {
		baseURL = defaultOpenAIEmbeddingURL
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetTimeout(60 * time.Second)
	return &OpenAIEmbedder{client: client, model: model}, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e *OpenAIEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	model := e.model
	if o := embedding.GetCommonOptions(&embedding.Options{Model: &model}, opts...); o.Model != nil {
		model = *o.Model
	}

	var body embeddingResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(embeddingRequest{Model: model, Input: texts}).
		SetResult(&body).
		SetError(&body).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		msg := resp.String()
		if body.Error != nil {
			msg = body.Error.Message
		}
		return nil, fmt.Errorf("embeddings status %d: %s", resp.StatusCode(), msg)
	}
	if len(body.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(body.Data), len(texts))
	}

	sort.Slice(body.Data, func(i, j int) bool { return body.Data[i].Index < body.Data[j].Index })
	out := make([][]float64, len(body.Data))
	for i, d := range body.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
