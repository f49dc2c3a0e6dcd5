package gemini

import "strings"

// GenerateRequest is a generateContent request body.
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is a list of parts from one role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a piece of content. Only text parts are used.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig controls sampling.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GenerateResponse is a generateContent response body, including the error
// shape returned on failure.
type GenerateResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	Error          *ErrorObject    `json:"error,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// PromptFeedback says whether the prompt was blocked.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// ErrorObject is the API's error payload.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Text returns the trimmed text of the first part of the first candidate.
func (r *GenerateResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	c := r.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(c.Parts[0].Text)
}
