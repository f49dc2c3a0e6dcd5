// Package gemini asks the Gemini API for a gap analysis of an audit report.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	DefaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel     = "gemini-2.5-flash"
	DefaultTimeout   = 90 * time.Second
	MaxReportChars   = 28000
	truncationNotice = "\n\n[... report truncated ...]"
)

var (
	ErrMissingAPIKey = errors.New("missing Gemini API key")
	ErrEmptyReport   = errors.New("empty report")
)

// Config configures a Client.
type Config struct {
	APIKey          string
	BaseURL         string        // default: DefaultBaseURL
	Model           string        // default: gemini-2.5-flash
	Temperature     float64       // default: 0.2
	MaxOutputTokens int           // default: 8192
	Timeout         time.Duration // default: 90s
	Logger          hclog.Logger
}

// Client generates gap analyses.
type Client struct {
	apiKey          string
	baseURL         string
	model           string
	temperature     float64
	maxOutputTokens int
	httpClient      *http.Client
	logger          hclog.Logger
}

// NewClient creates a new Gemini client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	if config.MaxOutputTokens == 0 {
		config.MaxOutputTokens = 8192
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}

	return &Client{
		apiKey:          config.APIKey,
		baseURL:         strings.TrimRight(config.BaseURL, "/"),
		model:           config.Model,
		temperature:     config.Temperature,
		maxOutputTokens: config.MaxOutputTokens,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger.Named("gemini"),
	}, nil
}

// GapAnalysis returns a Markdown analysis of report with a prioritized
// action plan.
func (c *Client) GapAnalysis(ctx context.Context, report string) (string, error) {
	if strings.TrimSpace(report) == "" {
		return "", ErrEmptyReport
	}

	reqBody := GenerateRequest{
		Contents: []Content{{
			Parts: []Part{{Text: gapAnalysisPrompt + "\n\n---\n\n" + Truncate(report, MaxReportChars)}},
		}},
		GenerationConfig: &GenerationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxOutputTokens,
		},
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending request to Gemini",
		"model", c.model,
		"report_length", len(report),
	)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var genResp GenerateResponse
	if len(bytes.TrimSpace(body)) > 0 {
		// An unparseable body still yields an HTTP status error below.
		_ = json.Unmarshal(body, &genResp)
	}

	if text := genResp.Text(); text != "" {
		c.logger.Info("generated gap analysis",
			"model", c.model,
			"generation_time_ms", time.Since(start).Milliseconds(),
			"length", len(text),
		)
		return text, nil
	}
	return "", responseError(&genResp, resp.StatusCode, body)
}

// Truncate cuts s to max characters and marks the cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + truncationNotice
}

// responseError explains why a response carried no text.
func responseError(resp *GenerateResponse, status int, body []byte) error {
	if e := resp.Error; e != nil {
		msg := e.Message
		if msg == "" {
			msg = e.Status
		}
		if e.Code != 0 {
			return &APIError{Code: e.Code, Message: msg}
		}
		return errors.New(msg)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("prompt blocked (%s), try a shorter report or different content", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 {
		if fr := resp.Candidates[0].FinishReason; fr != "" && fr != "STOP" {
			return fmt.Errorf("generation stopped: %s", fr)
		}
	}
	if status != http.StatusOK {
		text := []rune(string(body))
		if len(text) > 200 {
			text = text[:200]
		}
		return fmt.Errorf("HTTP %d: %s", status, string(text))
	}
	return errors.New("no content in response")
}

// APIError is an error object returned by the API.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

const gapAnalysisPrompt = `You are an expert SEO and web performance consultant. Analyze the audit report below in enough detail that the site owner can act on it. Respond in Markdown with these sections:

## 1. Executive summary
Two or three sentences covering overall health, the single biggest win to fix first, and a one-line priority.

## 2. Metric-by-metric analysis
For each category (Performance, Accessibility, Best Practices, SEO) and each Core Web Vital (FCP, LCP, CLS, TBT):
- Give the current value or score from the report.
- Say whether it passes or fails and why it matters for users and for search.
- When it fails or is weak, give a short technical reason (for example, a slow FCP usually points at render-blocking resources or a slow server).

## 3. Root cause focus
Name the most likely technical causes visible in the report, such as render-blocking JS or CSS, oversized images, missing caching or slow server responses. Be specific and cite the report where you can.

## 4. Prioritized action plan
List 7 to 10 concrete steps ordered by impact. For each step give:
- **What to do**: the action.
- **Why**: the metric it improves.
- **How**: a brief technical approach, for example preloading critical CSS, lazy-loading images below the fold, or enabling Brotli with long cache lifetimes.
Mention relevant tools or standards (Lighthouse, PageSpeed, Core Web Vitals) where they help.

## 5. Quick reference
A short "do this first" bullet list of 3 to 5 items so the owner can start immediately.

Be detailed and specific. Do not repeat the raw report; analyze it and recommend.`
