package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
)

// Ensure GeminiGeneration implements GenerationService
var _ driven.GenerationService = (*GeminiGeneration)(nil)

// GeminiGeneration implements GenerationService using the Gemini
// generateContent API
type GeminiGeneration struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	retry   retryPolicy
}

// NewGeminiGeneration creates a new Gemini generation service
func NewGeminiGeneration(apiKey, model, baseURL string) (driven.GenerationService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	if model == "" {
		model = "gemini-1.5-flash"
	}

	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	return &GeminiGeneration{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		retry: defaultRetryPolicy,
	}, nil
}

// generateRequest is the request body for generateContent
type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

// generateResponse is the response from generateContent
type generateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *geminiError `json:"error,omitempty"`
}

// Generate produces a text completion for the prompt
func (g *GeminiGeneration) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}

	var answer string
	err := g.retry.do(ctx, func(ctx context.Context) error {
		resp, err := g.doRequest(ctx, reqBody)
		if err != nil {
			return err
		}

		if len(resp.Candidates) == 0 {
			return fmt.Errorf("no candidates in response")
		}

		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
		answer = strings.TrimSpace(sb.String())
		if answer == "" {
			return fmt.Errorf("empty completion (finish reason %s)", resp.Candidates[0].FinishReason)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}

	return answer, nil
}

// Model returns the model name being used
func (g *GeminiGeneration) Model() string {
	return g.model
}

// Ping verifies the generation service is available
func (g *GeminiGeneration) Ping(ctx context.Context) error {
	_, err := g.Generate(ctx, "ping")
	return err
}

// Close releases resources held by the generation service
func (g *GeminiGeneration) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

// doRequest makes one generateContent call
func (g *GeminiGeneration) doRequest(ctx context.Context, reqBody generateRequest) (*generateResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
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

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if genResp.Error != nil {
		return nil, fmt.Errorf("Gemini API error: %s (status: %s)", genResp.Error.Message, genResp.Error.Status)
	}

	return &genResp, nil
}
