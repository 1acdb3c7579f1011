package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider identifies the wire dialect of the completion endpoint
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderGroq   Provider = "groq" // OpenAI-compatible chat completions
)

// AIConfig holds all AI-related configuration. Resolved once at startup.
type AIConfig struct {
	APIKey  string        `json:"-"` // Never serialize
	BaseURL string        `json:"baseUrl"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout"`

	// Sampling parameters sent with every request
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
	MaxTokens   int     `json:"maxTokens"`
}

// DefaultAIConfig returns the AI configuration from the environment.
// AI_* variables win over the legacy OLLAMA_*/GROQ_* names.
func DefaultAIConfig() *AIConfig {
	prod := isProduction()

	baseURL := "http://host.docker.internal:11434"
	model := "llama3.1:8b"
	if prod {
		baseURL = "https://api.groq.com"
		model = "llama-3.1-8b-instant"
	}

	timeoutSec := 60
	if v, err := strconv.Atoi(getEnvOrDefault("AI_TIMEOUT", "")); err == nil && v > 0 {
		timeoutSec = v
	}

	return &AIConfig{
		APIKey:      firstEnv("AI_API_KEY", "GROQ_API_KEY"),
		BaseURL:     strings.TrimRight(getEnvOrDefault("AI_BASE_URL", getEnvOrDefault("OLLAMA_BASE_URL", baseURL)), "/"),
		Model:       getEnvOrDefault("AI_MODEL", getEnvOrDefault("OLLAMA_MODEL", model)),
		Timeout:     time.Duration(timeoutSec) * time.Second,
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   1000,
	}
}

// Provider detects the provider from the base URL or the presence of an API key
func (c *AIConfig) Provider() Provider {
	if strings.Contains(c.BaseURL, "groq.com") || c.APIKey != "" {
		return ProviderGroq
	}
	return ProviderOllama
}

// ChatEndpoint returns the full chat completion URL for the detected provider
func (c *AIConfig) ChatEndpoint() string {
	if c.Provider() == ProviderGroq {
		return c.BaseURL + "/openai/v1/chat/completions"
	}
	return c.BaseURL + "/api/chat"
}

func isProduction() bool {
	env := strings.ToLower(firstEnv("APP_ENV", "GO_ENV"))
	return env == "production" || env == "prod"
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
