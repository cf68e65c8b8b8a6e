// Package facecrawler is a client for the face-matching crawler API: one
// endpoint to upload a probe image, one to poll the search it started.
package facecrawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func New(apiKey, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type uploadResponse struct {
	Error    string `json:"error"`
	IDSearch string `json:"id_search"`
}

// Upload submits a probe image and returns the provider's search id.
func (c *Client) Upload(ctx context.Context, filename string, image io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("images", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := writer.WriteField("id_search", ""); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload_pic", &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload status %d", resp.StatusCode)
	}

	var body uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("provider error: %s", body.Error)
	}
	if body.IDSearch == "" {
		return "", fmt.Errorf("provider returned no search id")
	}
	return body.IDSearch, nil
}

// SearchStatus is the state of an in-flight or finished face search.
type SearchStatus struct {
	Complete bool
	Progress int
	Items    []map[string]any
}

type searchRequest struct {
	IDSearch     string `json:"id_search"`
	WithProgress bool   `json:"with_progress"`
	StatusOnly   bool   `json:"status_only"`
	Demo         bool   `json:"demo"`
}

type searchResponse struct {
	Error    string `json:"error"`
	Progress int    `json:"progress"`
	Output   *struct {
		Items []map[string]any `json:"items"`
	} `json:"output"`
}

// Search polls an existing search. Items are present only once the crawl
// has finished.
func (c *Client) Search(ctx context.Context, idSearch string, demo bool) (SearchStatus, error) {
	payload, err := json.Marshal(searchRequest{
		IDSearch:     idSearch,
		WithProgress: true,
		Demo:         demo,
	})
	if err != nil {
		return SearchStatus{}, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/search", bytes.NewReader(payload))
	if err != nil {
		return SearchStatus{}, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SearchStatus{}, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SearchStatus{}, fmt.Errorf("search status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return SearchStatus{}, fmt.Errorf("decode search response: %w", err)
	}
	if body.Error != "" {
		return SearchStatus{}, fmt.Errorf("provider error: %s", body.Error)
	}

	if body.Output != nil {
		return SearchStatus{
			Complete: true,
			Progress: 100,
			Items:    body.Output.Items,
		}, nil
	}
	return SearchStatus{Progress: body.Progress}, nil
}
