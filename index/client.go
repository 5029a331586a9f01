package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Vector is one id→vector(+metadata) entry in the remote index's
// bulk-insert contract.
type Vector struct {
	Id       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Inserter pushes vectors to a remote vector index.
// The remote index upserts by id, so replaying a batch is safe.
type Inserter interface {
	// InsertVectors bulk-inserts a batch of vectors. The batch is treated
	// as all-or-nothing: any transport error, non-2xx status, or
	// success=false response fails the whole batch.
	InsertVectors(ctx context.Context, vectors []Vector) error
}

// Config holds configuration for the vector index client.
type Config struct {
	// AccountId is the remote account identifier.
	AccountId string

	// APIToken is the bearer credential.
	APIToken string

	// IndexName is the target index.
	IndexName string

	// BaseURL is the API host. Defaults to the public endpoint.
	BaseURL string

	// Timeout bounds each request.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults. Credentials
// and the index name must still be supplied.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://api.cloudflare.com/client/v4",
		Timeout: 60 * time.Second,
	}
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	if c.AccountId == "" {
		return errors.New("index config: AccountId is required")
	}
	if c.APIToken == "" {
		return errors.New("index config: APIToken is required")
	}
	if c.IndexName == "" {
		return errors.New("index config: IndexName is required")
	}
	if c.BaseURL == "" {
		return errors.New("index config: BaseURL is required")
	}
	if c.Timeout <= 0 {
		return errors.New("index config: Timeout must be positive")
	}
	return nil
}

// Client implements Inserter against the remote index's REST contract.
type Client struct {
	insertURL string
	token     string
	client    *http.Client
	logger    *slog.Logger
}

type insertRequest struct {
	Vectors []Vector `json:"vectors"`
}

type insertResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// newClient is an internal constructor that returns the concrete type.
func newClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		insertURL: fmt.Sprintf("%s/accounts/%s/vectorize/v2/indexes/%s/insert",
			config.BaseURL, config.AccountId, config.IndexName),
		token:  config.APIToken,
		client: &http.Client{Timeout: config.Timeout},
		logger: slog.Default().With("component", "index-client"),
	}, nil
}

// NewClient creates a vector index client from the provided configuration.
//
// Returns the Inserter interface to enforce abstraction.
func NewClient(config *Config) (Inserter, error) {
	return newClient(config)
}

// InsertVectors bulk-inserts a batch of vectors.
func (c *Client) InsertVectors(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	c.logger.Debug("inserting vectors", "count", len(vectors))

	body, err := json.Marshal(insertRequest{Vectors: vectors})
	if err != nil {
		return fmt.Errorf("encoding insert request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.insertURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building insert request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("insert request: unexpected status %d", resp.StatusCode)
	}

	var parsed insertResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decoding insert response: %w", err)
	}

	// Absent success counts as failure: the zero value is false.
	if !parsed.Success {
		if len(parsed.Errors) > 0 {
			return fmt.Errorf("index error %d: %s", parsed.Errors[0].Code, parsed.Errors[0].Message)
		}
		return errors.New("index returned success=false")
	}

	return nil
}
