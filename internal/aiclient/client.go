package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"survai/internal/config"
)

// Message is a single chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is a thin blocking client for a single chat-completion endpoint.
// It does not retry; callers decide whether to fall back.
type Client struct {
	config *config.AIConfig
	client *http.Client
}

// New creates a client bound to cfg
func New(cfg *config.AIConfig) *Client {
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete sends a prompt with an optional system prompt and returns the assistant text
func (c *Client) Complete(ctx context.Context, prompt, system string) (string, error) {
	msgs := make([]Message, 0, 2)
	if system != "" {
		msgs = append(msgs, Message{Role: "system", Content: system})
	}
	msgs = append(msgs, Message{Role: "user", Content: prompt})
	return c.Chat(ctx, msgs)
}

// Chat sends a full message list and returns the assistant text
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(c.buildRequest(messages))
	if err != nil {
		return "", &Error{Kind: KindProvider, Message: "encode request: " + err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.ChatEndpoint(), bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindProvider, Message: "build request: " + err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.transportError(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp.StatusCode, raw)
	}
	return c.parseContent(raw)
}

func (c *Client) buildRequest(messages []Message) map[string]interface{} {
	if c.config.Provider() == config.ProviderGroq {
		return map[string]interface{}{
			"model":       c.config.Model,
			"messages":    messages,
			"stream":      false,
			"temperature": c.config.Temperature,
			"top_p":       c.config.TopP,
			"max_tokens":  c.config.MaxTokens,
		}
	}
	return map[string]interface{}{
		"model":    c.config.Model,
		"messages": messages,
		"stream":   false,
		"options": map[string]interface{}{
			"temperature": c.config.Temperature,
			"top_p":       c.config.TopP,
			"num_predict": c.config.MaxTokens,
		},
	}
}

func (c *Client) parseContent(raw []byte) (string, error) {
	var parsed struct {
		Error   json.RawMessage `json:"error"`
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
		Message  *Message `json:"message"`
		Response string   `json:"response"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &Error{Kind: KindProvider, Message: "Invalid JSON response from AI provider", Err: err}
	}

	if len(parsed.Error) > 0 && string(parsed.Error) != "null" {
		return "", &Error{Kind: KindProvider, Message: "API error: " + errorText(parsed.Error)}
	}

	switch {
	case len(parsed.Choices) > 0 && parsed.Choices[0].Message.Content != "":
		return parsed.Choices[0].Message.Content, nil
	case parsed.Message != nil && parsed.Message.Content != "":
		return parsed.Message.Content, nil
	case parsed.Response != "":
		return parsed.Response, nil
	}
	return "", &Error{Kind: KindProvider, Message: "AI provider response has no assistant content"}
}

func (c *Client) statusError(status int, raw []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, StatusCode: status, Message: "Unauthorized: Check your API key"}
	case http.StatusNotFound:
		msg := fmt.Sprintf("Model '%s' not found. Install with: ollama pull %s", c.config.Model, c.config.Model)
		if c.config.Provider() == config.ProviderGroq {
			msg = fmt.Sprintf("Model '%s' not found on Groq. Check AI_MODEL against the provider's model list", c.config.Model)
		}
		return &Error{Kind: KindModelNotFound, StatusCode: status, Message: msg}
	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, StatusCode: status, Message: "Rate limit exceeded. Please try again later."}
	}
	return &Error{
		Kind:       KindProvider,
		StatusCode: status,
		Message:    fmt.Sprintf("HTTP %d: %s", status, strings.TrimSpace(string(raw))),
	}
}

func (c *Client) transportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("Request timed out after %d seconds", int(c.config.Timeout.Seconds())),
			Err:     err,
		}
	}
	if ctx.Err() != nil {
		return &Error{Kind: KindConnection, Message: "request canceled", Err: err}
	}
	return &Error{
		Kind:    KindConnection,
		Message: fmt.Sprintf("Cannot connect to AI provider at %s. Make sure it is running.", c.config.BaseURL),
		Err:     err,
	}
}

// errorText accepts both {"error":"msg"} and {"error":{"message":"msg"}}
func errorText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}

// ExtractJSON trims markdown fences and any prose around the outermost JSON object
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}
