// Package pagespeed is a client for the PageSpeed Insights v5 API.
package pagespeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"
	DefaultTimeout = 90 * time.Second
)

// Categories are the Lighthouse categories every run requests, in report
// order.
var Categories = []string{"performance", "accessibility", "best-practices", "seo"}

var (
	ErrMissingAPIKey = errors.New("missing PageSpeed API key")
	ErrMissingURL    = errors.New("missing URL")

	schemeRe = regexp.MustCompile(`(?i)^https?://`)
)

// Strategy is the device profile Lighthouse emulates.
type Strategy string

const (
	Mobile  Strategy = "mobile"
	Desktop Strategy = "desktop"
)

// Title is the strategy as shown in reports.
func (s Strategy) Title() string {
	switch s {
	case Mobile:
		return "Mobile"
	case Desktop:
		return "Desktop"
	default:
		return string(s)
	}
}

// NormalizeURL trims u and adds https:// when it has no http(s) scheme.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if !schemeRe.MatchString(u) {
		u = "https://" + u
	}
	return u
}

// APIError is a non-200 response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("PageSpeed API error (%d): %s", e.StatusCode, e.Message)
}

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string        // default: DefaultBaseURL
	Timeout time.Duration // default: 90s
	Logger  hclog.Logger
}

// Client runs PageSpeed Insights audits.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewClient creates a new PageSpeed client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
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
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger.Named("pagespeed"),
	}, nil
}

// Run audits target with the given strategy.
func (c *Client) Run(ctx context.Context, target string, strategy Strategy) (*Result, error) {
	if strings.TrimSpace(target) == "" {
		return nil, ErrMissingURL
	}
	target = NormalizeURL(target)

	q := url.Values{}
	q.Set("url", target)
	q.Set("key", c.apiKey)
	q.Set("strategy", string(strategy))
	for _, cat := range Categories {
		q.Add("category", cat)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("running audit", "url", target, "strategy", strategy)
	start := time.Now()

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
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.logger.Info("audit complete",
		"url", target,
		"strategy", strategy,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &result, nil
}

// errorMessage pulls error.message out of a Google API error body.
func errorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
