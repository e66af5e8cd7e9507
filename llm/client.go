// Package llm defines the completion provider collaborator and ships clients
// for Ollama and OpenAI-compatible endpoints.
package llm

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

// CompletionConfig tunes a single completion call
type CompletionConfig struct {
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Completer generates text for a prompt. Implementations are expected to be
// safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string, config CompletionConfig) (string, error)
}

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
	requestTimeout     = 120 * time.Second
)

// OllamaClient completes prompts against an Ollama server
type OllamaClient struct {
	BaseURL string
	Model   string
	client  *http.Client
}

// NewOllamaClient creates a client for the given base URL and model.
// An empty base URL falls back to the local default.
func NewOllamaClient(baseURL string, modelID string) *OllamaClient {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &OllamaClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   modelID,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string, config CompletionConfig) (string, error) {
	modelID := config.Model
	if modelID == "" {
		modelID = c.Model
	}

	body, err := json.Marshal(map[string]interface{}{
		"model":  modelID,
		"prompt": prompt,
		"stream": false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var payload struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.Response, nil
}

// OpenAIClient completes prompts against an OpenAI-compatible chat endpoint
// (OpenAI, vLLM or any custom server speaking the same protocol).
type OpenAIClient struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewOpenAIClient creates a client for the given base URL, API key and model
func NewOpenAIClient(baseURL string, apiKey string, modelID string) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   modelID,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string, config CompletionConfig) (string, error) {
	modelID := config.Model
	if modelID == "" {
		modelID = c.Model
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := config.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	body, err := json.Marshal(map[string]interface{}{
		"model": modelID,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  maxTokens,
		"temperature": temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, string(raw))
	}

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("completion endpoint returned no choices")
	}
	return payload.Choices[0].Message.Content, nil
}
