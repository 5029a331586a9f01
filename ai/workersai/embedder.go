package workersai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/lessonvec/ai"
)

// Embedder implements ai.Embedder against the Workers AI REST contract.
type Embedder struct {
	endpoint   string
	token      string
	dimensions int
	client     *http.Client
	logger     *slog.Logger
}

type embedRequest struct {
	Text []string `json:"text"`
}

type embedResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Data [][]float32 `json:"data"`
	} `json:"result"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Embedder{
		endpoint:   fmt.Sprintf("%s/accounts/%s/ai/run/%s", config.BaseURL, config.AccountId, config.Model),
		token:      config.APIToken,
		dimensions: config.Dimensions,
		client:     &http.Client{Timeout: config.Timeout},
		logger:     slog.Default().With("component", "workersai-embedder"),
	}, nil
}

// NewEmbedder creates a new Workers AI embedder from the provided
// configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in
// one request. Any transport error, non-2xx status, success=false
// response, or vector of unexpected shape is an error.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	e.logger.Debug("generating embeddings", "count", len(texts))

	body, err := json.Marshal(embedRequest{Text: texts})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building embed request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error("embedding request failed", "err", err)
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.logger.Error("embedding request rejected", "status", resp.StatusCode)
		return nil, fmt.Errorf("embedding request: unexpected status %d", resp.StatusCode)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}

	if !parsed.Success {
		if len(parsed.Errors) > 0 {
			return nil, fmt.Errorf("embedding service error %d: %s", parsed.Errors[0].Code, parsed.Errors[0].Message)
		}
		return nil, fmt.Errorf("embedding service returned success=false")
	}

	if len(parsed.Result.Data) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch: expected %d vectors, received %d", len(texts), len(parsed.Result.Data))
	}
	for i, vector := range parsed.Result.Data {
		if len(vector) != e.dimensions {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(vector), e.dimensions)
		}
	}

	return parsed.Result.Data, nil
}
