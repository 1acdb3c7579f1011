package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"survai/internal/config"
)

func testConfig(baseURL, apiKey string) *config.AIConfig {
	return &config.AIConfig{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       "llama3.1:8b",
		Timeout:     2 * time.Second,
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   1000,
	}
}

func TestCompleteOpenAICompatible(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, "secret"))
	out, err := c.Complete(context.Background(), "hi", "be brief")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "hello" {
		t.Fatalf("content = %q", out)
	}
	if got["stream"] != false || got["temperature"] != 0.7 || got["top_p"] != 0.9 || got["max_tokens"] != float64(1000) {
		t.Fatalf("unexpected request body: %v", got)
	}
	msgs, _ := got["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(msgs))
	}
}

func TestChatOllamaShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("no auth header expected without api key")
		}
		w.Write([]byte(`{"message":{"role":"assistant","content":"from ollama"}}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, ""))
	out, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out != "from ollama" {
		t.Fatalf("content = %q", out)
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Kind
		wantMsg string
	}{
		{"unauthorized", 401, `{}`, KindUnauthorized, "Unauthorized"},
		{"not found", 404, `{}`, KindModelNotFound, "ollama pull llama3.1:8b"},
		{"rate limited", 429, `{}`, KindRateLimited, "Rate limit exceeded"},
		{"server error", 500, `boom`, KindProvider, "HTTP 500: boom"},
		{"error field", 200, `{"error":"model overloaded"}`, KindProvider, "API error: model overloaded"},
		{"nested error field", 200, `{"error":{"message":"bad request"}}`, KindProvider, "API error: bad request"},
		{"malformed", 200, `not json`, KindProvider, "Invalid JSON"},
		{"no content", 200, `{"choices":[]}`, KindProvider, "no assistant content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(testConfig(srv.URL, "")).Complete(context.Background(), "p", "")
			if KindOf(err) != tt.want {
				t.Fatalf("kind = %q, want %q (err=%v)", KindOf(err), tt.want, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("message %q does not contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, "")
	cfg.Timeout = 50 * time.Millisecond
	_, err := New(cfg).Complete(context.Background(), "p", "")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(testConfig(url, "")).Complete(context.Background(), "p", "")
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("connection error must not match timeout")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":1}\n```":     `{"a":1}`,
		"Sure! {\"a\":{\"b\":2}} done": `{"a":{"b":2}}`,
		"  {\"x\":true}  ":             `{"x":true}`,
		"no json here":                 "no json here",
	}
	for in, want := range tests {
		if got := ExtractJSON(in); got != want {
			t.Fatalf("ExtractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}
