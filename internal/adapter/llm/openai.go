package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"docqa/internal/adapter/retry"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	DefaultChatModel = "gpt-4o-mini"

	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	ollamaBaseURL = "http://localhost:11434/v1"
)

// Config selects and tunes an OpenAI-compatible chat endpoint.
type Config struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKeyEnv   string
	Temperature float32
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

// OpenAIClient sends a prompt as a single user message and returns the reply.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxRetries  int
	retryDelay  time.Duration
	timeout     time.Duration
}

func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	baseURL := cfg.BaseURL
	model := cfg.Model
	keyRequired := true

	switch cfg.Provider {
	case ProviderOpenAI, "":
		if model == "" {
			model = DefaultChatModel
		}
	case ProviderGemini:
		if baseURL == "" {
			baseURL = geminiBaseURL
		}
		if model == "" {
			model = "gemini-1.5-flash"
		}
	case ProviderOllama:
		if baseURL == "" {
			baseURL = ollamaBaseURL
		}
		if model == "" {
			model = "llama3.1"
		}
		keyRequired = false
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.Provider)
	}

	apiKey := ""
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	if apiKey == "" {
		if keyRequired {
			return nil, fmt.Errorf("API key not found in environment variable: %s", cfg.APIKeyEnv)
		}
		apiKey = "ollama"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		timeout:     timeout,
	}, nil
}

func (c *OpenAIClient) Generate(prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retry.Backoff(c.retryDelay, attempt))
		}

		text, err := c.complete(prompt)
		if err == nil {
			return text, nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
		if !retry.Retryable(err) {
			break
		}
	}

	return "", fmt.Errorf("chat completion failed: %w", lastErr)
}

func (c *OpenAIClient) complete(prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) ModelName() string {
	return c.model
}
