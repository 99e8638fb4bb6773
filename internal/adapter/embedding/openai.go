package embedding

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

	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	OllamaBaseURL = "http://localhost:11434/v1"
)

// Config selects and tunes an OpenAI-compatible embedding endpoint.
type Config struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKeyEnv  string
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// ProgressFunc is called after each sub-batch with the number of texts embedded so far.
type ProgressFunc func(done, total int)

type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	progress   ProgressFunc
}

// NewOpenAIEmbedder builds an embedder for the configured provider. OpenAI and
// Gemini need an API key in the environment; Ollama does not.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	baseURL := cfg.BaseURL
	model := cfg.Model
	keyRequired := true

	switch cfg.Provider {
	case ProviderOpenAI, "":
		if model == "" {
			model = string(openai.SmallEmbedding3)
		}
	case ProviderGemini:
		if baseURL == "" {
			baseURL = GeminiBaseURL
		}
		if model == "" {
			model = "text-embedding-004"
		}
	case ProviderOllama:
		if baseURL == "" {
			baseURL = OllamaBaseURL
		}
		if model == "" {
			model = "nomic-embed-text"
		}
		keyRequired = false
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
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

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	retryDelay := cfg.RetryDelay
	if retryDelay < 0 {
		retryDelay = 0
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		batchSize:  batchSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: retryDelay,
		timeout:    timeout,
	}, nil
}

// SetProgress installs a callback that is notified after every sub-batch.
func (e *OpenAIEmbedder) SetProgress(fn ProgressFunc) {
	e.progress = fn
}

func (e *OpenAIEmbedder) Embed(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	allEmbeddings := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := e.embedBatchWithRetry(texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)

		if e.progress != nil {
			e.progress(end, len(texts))
		}
	}

	return allEmbeddings, nil
}

func (e *OpenAIEmbedder) embedBatchWithRetry(texts []string) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retry.Backoff(e.retryDelay, attempt))
		}

		embeddings, err := e.embedBatch(texts)
		if err == nil {
			return embeddings, nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
		if !retry.Retryable(err) {
			break
		}
	}

	return nil, lastErr
}

func (e *OpenAIEmbedder) embedBatch(texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}
	for i, emb := range embeddings {
		if emb == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}

	return embeddings, nil
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
