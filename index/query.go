package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// QueryRequest is the deployed query service's request contract.
type QueryRequest struct {
	Query                string `json:"query"`
	TopK                 int    `json:"topK"`
	IncludeRelationships bool   `json:"includeRelationships"`
}

// QueryResult is one scored match returned by the query service.
type QueryResult struct {
	Score         float64          `json:"score"`
	Lesson        map[string]any   `json:"lesson"`
	Metadata      map[string]any   `json:"metadata"`
	Relationships []map[string]any `json:"relationships,omitempty"`
}

// QueryResponse is the query service's response contract.
type QueryResponse struct {
	Results []QueryResult `json:"results"`
}

// QueryClient talks to the deployed query service that fronts the
// vector index. It exists for smoke-testing a deployment; the ingestion
// pipeline itself never queries.
type QueryClient struct {
	queryURL string
	client   *http.Client
}

// NewQueryClient creates a query client for the service at workerURL.
func NewQueryClient(workerURL string, timeout time.Duration) (*QueryClient, error) {
	if workerURL == "" {
		return nil, errors.New("query client: worker URL is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QueryClient{
		queryURL: strings.TrimSuffix(workerURL, "/") + "/query",
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Query runs a free-text semantic query against the deployed service.
func (q *QueryClient) Query(ctx context.Context, request QueryRequest) (*QueryResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.queryURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("query request: unexpected status %d", resp.StatusCode)
	}

	var parsed QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}

	return &parsed, nil
}
