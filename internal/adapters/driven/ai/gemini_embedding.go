package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
)

// Ensure GeminiEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*GeminiEmbedding)(nil)

// geminiMaxBatchSize is the API limit on texts per batchEmbedContents call
const geminiMaxBatchSize = 100

// Model dimensions for Gemini embedding models
var geminiModelDimensions = map[string]int{
	"text-embedding-004": 768,
	"embedding-001":      768,
}

// GeminiEmbedding implements EmbeddingService using the Gemini
// embedding API. Oversized inputs are split into API-sized batches,
// transient failures are retried with backoff, and the client-side
// rate limiter keeps ingest bursts under the per-minute quota.
type GeminiEmbedding struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	client     *http.Client
	limiter    *rate.Limiter
	retry      retryPolicy
}

// NewGeminiEmbedding creates a new Gemini embedding service
func NewGeminiEmbedding(apiKey, model, baseURL string) (driven.EmbeddingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	if model == "" {
		model = "text-embedding-004"
	}

	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	dimensions, ok := geminiModelDimensions[model]
	if !ok {
		// Default to 768 for unknown models
		dimensions = 768
	}

	return &GeminiEmbedding{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		// 100 requests/minute with room for a short burst
		limiter: rate.NewLimiter(rate.Limit(100.0/60.0), 10),
		retry:   defaultRetryPolicy,
	}, nil
}

// batchEmbedRequest is the request body for batchEmbedContents
type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type embedContentRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// batchEmbedResponse is the response from batchEmbedContents
type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
	Error *geminiError `json:"error,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Embed generates embeddings for multiple texts. Output order matches
// input order; a failure after retries surfaces
// domain.ErrEmbeddingUnavailable with nothing partial returned.
func (e *GeminiEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiMaxBatchSize {
		end := start + geminiMaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}
		embeddings = append(embeddings, batch...)
	}

	return embeddings, nil
}

// EmbedQuery generates an embedding for a search query
func (e *GeminiEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned for query", domain.ErrEmbeddingUnavailable)
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimension size
func (e *GeminiEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *GeminiEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies the embedding service is available
func (e *GeminiEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases resources held by the embedding service
func (e *GeminiEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// embedBatch embeds one API-sized batch with retry
func (e *GeminiEmbedding) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := batchEmbedRequest{
		Requests: make([]embedContentRequest, 0, len(texts)),
	}
	for _, text := range texts {
		reqBody.Requests = append(reqBody.Requests, embedContentRequest{
			Model:   "models/" + e.model,
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		})
	}

	var result [][]float32
	err := e.retry.do(ctx, func(ctx context.Context) error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := e.doRequest(ctx, reqBody)
		if err != nil {
			return err
		}

		if len(resp.Embeddings) != len(texts) {
			return fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
		}

		result = make([][]float32, len(texts))
		for i, emb := range resp.Embeddings {
			result[i] = emb.Values
		}
		return nil
	})
	return result, err
}

// doRequest makes one batchEmbedContents call
func (e *GeminiEmbedding) doRequest(ctx context.Context, reqBody batchEmbedRequest) (*batchEmbedResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", e.baseURL, e.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, retryable(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retryable(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("Gemini API returned status %d: %s", resp.StatusCode, string(respBody))
		if retryableStatus(resp.StatusCode) {
			return nil, retryable(apiErr)
		}
		return nil, apiErr
	}

	var embResp batchEmbedResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("Gemini API error: %s (status: %s)", embResp.Error.Message, embResp.Error.Status)
	}

	return &embResp, nil
}
