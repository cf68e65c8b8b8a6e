// Package serpapi is a thin client for the SerpAPI search aggregator. The
// provider's payload is passed through, not interpreted.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func New(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://serpapi.com",
		apiKey:     apiKey,
	}
}

// NewWithBaseURL points the client at an alternate endpoint. Used in tests.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = baseURL
	return c
}

type OrganicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

type searchResponse struct {
	OrganicResults []OrganicResult `json:"organic_results"`
}

// Search runs one query and returns the organic results, which may be empty.
func (c *Client) Search(ctx context.Context, query, location, engine string) ([]OrganicResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("location", location)
	params.Set("engine", engine)
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build serpapi request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}

	for i := range body.OrganicResults {
		if body.OrganicResults[i].Source == "" {
			body.OrganicResults[i].Source = "SerpAPI"
		}
	}
	return body.OrganicResults, nil
}
