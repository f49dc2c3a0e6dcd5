// Package serper is a client for the Serper Google search API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	DefaultBaseURL    = "https://google.serper.dev/search"
	DefaultTimeout    = 15 * time.Second
	DefaultNumResults = 10
)

var (
	ErrMissingAPIKey = errors.New("missing Serper API key")
	ErrEmptyQuery    = errors.New("empty search query")
)

// Result is the part of a search response that reports use.
type Result struct {
	Organic       []OrganicResult `json:"organic"`
	PeopleAlsoAsk []Question      `json:"peopleAlsoAsk"`
}

// OrganicResult is one organic search hit.
type OrganicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// Question is a "people also ask" entry.
type Question struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet"`
	Title    string `json:"title,omitempty"`
	Link     string `json:"link,omitempty"`
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string        // default: DefaultBaseURL
	NumResults int           // default: 10
	Timeout    time.Duration // default: 15s
	Logger     hclog.Logger
}

// Client searches with Serper.
type Client struct {
	apiKey     string
	baseURL    string
	num        int
	httpClient *http.Client
	logger     hclog.Logger
}

// NewClient creates a new Serper client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.NumResults <= 0 {
		config.NumResults = DefaultNumResults
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}

	return &Client{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		num:     config.NumResults,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger.Named("serper"),
	}, nil
}

// Search runs query and returns organic results and related questions.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	reqJSON, err := json.Marshal(searchRequest{Q: query, Num: c.num})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("searching", "query", query, "num", c.num)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Serper API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.logger.Debug("search complete",
		"query", query,
		"organic", len(result.Organic),
		"people_also_ask", len(result.PeopleAlsoAsk),
	)
	return &result, nil
}
