package workersai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lessonvec/ai"
)

func testConfig(baseURL string) *ai.Config {
	return ai.NewConfig(
		ai.WithBaseURL(baseURL),
		ai.WithAccountId("acct-123"),
		ai.WithAPIToken("secret"),
		ai.WithModel("@cf/baai/bge-base-en-v1.5"),
		ai.WithDimensions(4),
		ai.WithTimeout(5*time.Second),
	)
}

func TestEmbedTexts(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody embedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result": map[string]any{
				"data": [][]float32{{0.1, 0.2, 0.3, 0.4}, {0.5, 0.6, 0.7, 0.8}},
			},
		})
	}))
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, vectors[0])

	assert.Equal(t, "/accounts/acct-123/ai/run/@cf/baai/bge-base-en-v1.5", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, []string{"first", "second"}, gotBody.Text)
}

func TestEmbedText_SuccessFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"errors":  []map[string]any{{"code": 7000, "message": "invalid model"}},
		})
	}))
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestEmbedText_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "text")
	assert.Error(t, err)
}

func TestEmbedTexts_WrongShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result":  map[string]any{"data": [][]float32{{0.1, 0.2}}},
		})
	}))
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	// Wrong dimensionality is a failure, not a silently accepted vector.
	_, err = embedder.EmbedText(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.AccountId = ""

	_, err := NewEmbedder(cfg)
	assert.Error(t, err)
}
