package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"tmxbank/internal/worker"
)

// EmbeddingClient generates text embeddings via an OpenAI-compatible
// /embeddings endpoint.
type EmbeddingClient struct {
	http       *resty.Client
	model      string
	dimensions int
}

// NewEmbeddingClient creates a new embedding client. baseURL is the API
// root (e.g. https://api.openai.com/v1).
func NewEmbeddingClient(baseURL, apiKey, model string, dimensions int) *EmbeddingClient {
	if dimensions <= 0 {
		dimensions = 1536
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetTimeout(60 * time.Second)
	return &EmbeddingClient{
		http:       client,
		model:      model,
		dimensions: dimensions,
	}
}

// --- OpenAI-compatible request/response types ---

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Usage embeddingUsage  `json:"usage"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingUsage struct {
	TotalTokens int `json:"total_tokens"`
}

// Embed generates embeddings for a batch of texts, one vector per input in
// input order.
func (ec *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var embedResp embeddingResponse
	resp, err := ec.http.R().
		SetContext(ctx).
		SetBody(embeddingRequest{
			Input:      texts,
			Model:      ec.model,
			Dimensions: ec.dimensions,
		}).
		SetResult(&embedResp).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("embedding API call: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embedding API error (status %d): %s", resp.StatusCode(), resp.String())
	}

	// Build result ordered by index.
	results := make([][]float32, len(texts))
	for _, d := range embedResp.Data {
		if d.Index >= 0 && d.Index < len(results) {
			results[d.Index] = d.Embedding
		}
	}

	log.Debug().
		Int("texts", len(texts)).
		Int("tokens", embedResp.Usage.TotalTokens).
		Msg("Generated embeddings")

	return results, nil
}

// EmbedBatch processes texts in batches, respecting API limits.
func (ec *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 32
	}

	var allEmbeddings [][]float32

	batches := worker.Batch(texts, batchSize)
	for i, batch := range batches {
		embeddings, err := ec.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d/%d: %w", i+1, len(batches), err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)

		log.Info().
			Int("batch", i+1).
			Int("total_batches", len(batches)).
			Int("processed", len(allEmbeddings)).
			Msg("Embedding progress")
	}

	return allEmbeddings, nil
}

// EmbedQuery generates an embedding for a single lookup text.
func (ec *EmbeddingClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	results, err := ec.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}
	if len(results) == 0 || results[0] == nil {
		return nil, fmt.Errorf("no embedding returned for query")
	}
	return results[0], nil
}
