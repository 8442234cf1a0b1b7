package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Reranker scores documents against a query with a cross-encoder. Scores are
// relevance logits mapped to [0,1] by the serving layer; higher is better.
type Reranker interface {
	// Rerank returns one score per document, in input order.
	Rerank(ctx context.Context, query string, documents []string) ([]float64, error)

	// Model returns the model name.
	Model() string
}

// RerankConfig configures the reranker client.
type RerankConfig struct {
	// Endpoint is the base URL of the rerank server. If empty, a noop
	// reranker scoring everything 0 is returned.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Model is the cross-encoder model name sent in the request.
	Model string `json:"model" yaml:"model"`

	// Timeout per HTTP request. Default: 30s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// NewReranker creates a Reranker from config.
func NewReranker(cfg RerankConfig) Reranker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Endpoint == "" {
		return noopReranker{model: cfg.Model}
	}
	return &rerankClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// rerankClient speaks the /v1/rerank API format (vLLM, TEI, Cohere-style).
type rerankClient struct {
	endpoint string
	model    string
	client   *http.Client
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (c *rerankClient) Rerank(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: documents,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.endpoint + "/v1/rerank"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var result rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	scores := make([]float64, len(documents))
	seen := make([]bool, len(documents))
	for _, r := range result.Results {
		if r.Index >= 0 && r.Index < len(scores) {
			scores[r.Index] = r.RelevanceScore
			seen[r.Index] = true
		}
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("missing rerank score for document index %d", i)
		}
	}
	return scores, nil
}

func (c *rerankClient) Model() string { return c.model }

type noopReranker struct {
	model string
}

func (n noopReranker) Rerank(_ context.Context, _ string, documents []string) ([]float64, error) {
	return make([]float64, len(documents)), nil
}

func (n noopReranker) Model() string { return n.model }
