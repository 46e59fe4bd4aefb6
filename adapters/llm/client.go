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

	"liftbot/domain/core"
)

// OpenAIClient implements ports.LLMClient against the Chat Completions API.
type OpenAIClient struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewOpenAIClient creates a chat client. The base URL defaults to the public
// OpenAI endpoint.
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{APIKey: apiKey, BaseURL: baseURL, Model: model, Timeout: timeout}, nil
}

func (c *OpenAIClient) ChatCompletion(ctx context.Context, systemPrompt, userContext string, temperature float64, maxTokens int) (string, error) {
	if strings.TrimSpace(c.Model) == "" {
		return "", fmt.Errorf("%w: missing model", core.ErrGeneration)
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	// Kept minimal: one system + one user message.
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}
	body := reqBody{
		Model: c.Model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContext},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: c.Timeout}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrGeneration, err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", core.ErrGeneration, resp.StatusCode, truncate(string(respRaw), 300))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respRaw, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", core.ErrGeneration, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", core.ErrGeneration)
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// MockLLMClient is a mock generator for tests and offline runs.
type MockLLMClient struct {
	Response string
	Error    error
	Calls    int
}

func (m *MockLLMClient) ChatCompletion(ctx context.Context, systemPrompt, userContext string, temperature float64, maxTokens int) (string, error) {
	m.Calls++
	if m.Error != nil {
		return "", m.Error
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return "Respuesta generada a partir del contexto del análisis AB Testing.", nil
}
