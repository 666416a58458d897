package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const serperEndpoint = "https://google.serper.dev/search"

// SearchConfig configures the Serper web search client.
type SearchConfig struct {
	APIKey   string `mapstructure:"-"`
	Endpoint string `mapstructure:"endpoint"`
	MaxHits  int    `mapstructure:"max_hits"`
}

// SearchResult is one organic hit.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SearchClient queries the Serper API.
type SearchClient struct {
	apiKey   string
	endpoint string
	maxHits  int
	client   *http.Client
}

// NewSearchClient creates a search client. An empty endpoint selects the
// public Serper API.
func NewSearchClient(cfg SearchConfig) *SearchClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = serperEndpoint
	}
	maxHits := cfg.MaxHits
	if maxHits <= 0 {
		maxHits = 5
	}
	return &SearchClient{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		maxHits:  maxHits,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Search runs a web search and returns up to MaxHits organic results.
func (s *SearchClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, raw)
	}

	var payload struct {
		Organic []SearchResult `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if len(payload.Organic) > s.maxHits {
		payload.Organic = payload.Organic[:s.maxHits]
	}
	return payload.Organic, nil
}
