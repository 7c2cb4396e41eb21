// Package openai is a minimal client for the two OpenAI endpoints this
// service consumes: /moderations (image safety) and /chat/completions
// (vision-based taxonomy classification). Timeouts are enforced per call by
// the caller's context; the embedded http.Client carries a hard upper bound.
package openai

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

const hardTimeout = 60 * time.Second

// Client communicates with an OpenAI-compatible API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL (e.g.
// https://api.openai.com/v1). A custom base URL is how tests point the client
// at an httptest server.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: hardTimeout,
		},
	}
}

// ModerationResult is a single verdict from the moderations endpoint.
type ModerationResult struct {
	Flagged    bool            `json:"flagged"`
	Categories map[string]bool `json:"categories"`
}

type moderationRequest struct {
	Model string            `json:"model"`
	Input []moderationInput `json:"input"`
}

type moderationInput struct {
	Type     string             `json:"type"`
	ImageURL moderationImageURL `json:"image_url"`
}

type moderationImageURL struct {
	URL string `json:"url"`
}

type moderationResponse struct {
	Results []ModerationResult `json:"results"`
}

// ModerateImage classifies the image at url and returns the first verdict.
func (c *Client) ModerateImage(ctx context.Context, model, url string) (*ModerationResult, error) {
	req := moderationRequest{
		Model: model,
		Input: []moderationInput{{Type: "image_url", ImageURL: moderationImageURL{URL: url}}},
	}

	var resp moderationResponse
	if err := c.post(ctx, "/moderations", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("openai: moderation response has no results")
	}
	return &resp.Results[0], nil
}

// ChatMessage is a chat completion message. Content holds either a plain
// string or an array of content parts (text + image_url) for vision requests.
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// TextPart builds a text content part for a vision message.
func TextPart(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

// ImagePart builds an image_url content part for a vision message.
func ImagePart(url string) map[string]any {
	return map[string]any{"type": "image_url", "image_url": map[string]string{"url": url}}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatJSON sends a chat completion request with response_format json_object
// and returns the raw content of the first choice. Markdown code fences are
// stripped defensively since some models still wrap JSON output in them.
func (c *Client) ChatJSON(ctx context.Context, model string, messages []ChatMessage, maxTokens int, temperature float64) (string, error) {
	req := chatRequest{
		Model:          model,
		Messages:       messages,
		MaxTokens:      maxTokens,
		Temperature:    temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: chat response has no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content), nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("openai: execute request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("openai: %s returned HTTP %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	return nil
}
