// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
	"time"
)

// Provider selects the embedding service implementation.
type Provider string

const (
	// ProviderWorkersAI is the Cloudflare Workers AI REST contract.
	ProviderWorkersAI Provider = "workersai"

	// ProviderOpenAI is any OpenAI-compatible embeddings API
	// (OpenAI, Ollama, LocalAI, vLLM).
	ProviderOpenAI Provider = "openai"
)

// Config holds configuration for embedding service providers.
type Config struct {
	// Provider selects the implementation. Default: ProviderWorkersAI.
	Provider Provider

	// AccountId is the remote account identifier (Workers AI only).
	AccountId string

	// APIToken is the bearer credential for the embedding service.
	// Optional for local OpenAI-compatible servers.
	APIToken string

	// BaseURL is the service base URL. For Workers AI this defaults to
	// the public API host; for OpenAI-compatible servers it is the host
	// including the /v1 suffix.
	BaseURL string

	// Model is the embedding model identifier.
	// Example: "@cf/baai/bge-base-en-v1.5", "text-embedding-3-small"
	Model string

	// Dimensions is the expected vector dimensionality. Responses with a
	// different shape are treated as failures.
	Dimensions int

	// Timeout bounds each embedding request.
	Timeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider selects the embedding provider.
func WithProvider(p Provider) ConfigOption {
	return func(c *Config) {
		c.Provider = p
	}
}

// WithAccountId sets the remote account identifier.
func WithAccountId(id string) ConfigOption {
	return func(c *Config) {
		c.AccountId = id
	}
}

// WithAPIToken sets the bearer credential.
func WithAPIToken(token string) ConfigOption {
	return func(c *Config) {
		c.APIToken = token
	}
}

// WithBaseURL sets the service base URL.
func WithBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithDimensions sets the expected vector dimensionality.
func WithDimensions(d int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = d
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// DefaultConfig returns a Config with sensible defaults for the
// Workers AI provider.
func DefaultConfig() *Config {
	return &Config{
		Provider:   ProviderWorkersAI,
		BaseURL:    "https://api.cloudflare.com/client/v4",
		Model:      "@cf/baai/bge-base-en-v1.5",
		Dimensions: 768,
		Timeout:    30 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// For OpenAI-compatible providers it adds the /v1 suffix to the base
// URL if missing, which most such servers require.
func (c *Config) Normalize() {
	if c.Provider == ProviderOpenAI && c.BaseURL != "" && !strings.HasSuffix(c.BaseURL, "/v1") {
		c.BaseURL = strings.TrimSuffix(c.BaseURL, "/") + "/v1"
	}
	if c.Provider == ProviderWorkersAI {
		c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	}
}

// Validate checks that the configuration is valid and complete for the
// selected provider. It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.BaseURL == "" {
		return errors.New("ai config: BaseURL is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.Dimensions <= 0 {
		return errors.New("ai config: Dimensions must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("ai config: Timeout must be positive")
	}

	switch c.Provider {
	case ProviderWorkersAI:
		if c.AccountId == "" {
			return errors.New("ai config: AccountId is required for the workersai provider")
		}
		if c.APIToken == "" {
			return errors.New("ai config: APIToken is required for the workersai provider")
		}
	case ProviderOpenAI:
		// Token is optional for local servers.
	default:
		return errors.New("ai config: unknown provider " + string(c.Provider))
	}

	return nil
}
