// Package tavily implements the search.Searcher interface against the
// Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"research-assistant/server/llm/providers/transport"
	"research-assistant/server/search"
)

const defaultBaseURL = "https://api.tavily.com"

// Config holds Tavily client configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	// SearchDepth is "basic" or "advanced"; defaults to basic.
	SearchDepth string
	Timeout     time.Duration
}

// Client calls the Tavily /search endpoint.
type Client struct {
	http *transport.HTTPClient
	cfg  Config
	log  zerolog.Logger
}

// NewClient creates a Tavily client.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("tavily: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.SearchDepth == "" {
		cfg.SearchDepth = "basic"
	}

	httpClient := transport.NewHTTPClient(transport.Options{
		Timeout:      cfg.Timeout,
		RetryMax:     3,
		RetryBackoff: time.Second,
		RPS:          2,
		Burst:        2,
	})

	return &Client{
		http: httpClient,
		cfg:  cfg,
		log:  log.With().Str("component", "tavily").Logger(),
	}, nil
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search implements search.Searcher.
func (c *Client) Search(ctx context.Context, query string) ([]search.Result, error) {
	body, err := json.Marshal(searchRequest{
		APIKey:      c.cfg.APIKey,
		Query:       query,
		MaxResults:  c.cfg.MaxResults,
		SearchDepth: c.cfg.SearchDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: build request: %w", err)
	}

	c.log.Debug().Str("query", query).Msg("searching")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("tavily: search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("tavily: search %q: unexpected status %d: %s", query, resp.StatusCode, payload)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	results := make([]search.Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, search.Result{
			URL:     r.URL,
			Title:   r.Title,
			Content: r.Content,
			Score:   r.Score,
		})
	}

	c.log.Debug().Str("query", query).Int("results", len(results)).Msg("search done")
	return results, nil
}
