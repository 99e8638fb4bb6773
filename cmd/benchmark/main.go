package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"docqa/config"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/fs"
	"docqa/internal/port"
	"docqa/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding docqa.yaml")
	file := flag.String("f", "", "Document to index")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 5, "Number of results")
	flag.Parse()

	if *file == "" || *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -f handbook.pdf -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, build time)")
		fmt.Println("  2. Semantic similarity (query vs results)")
		fmt.Println("  3. Self-retrieval (every chunk finds itself first)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	loader := fs.NewLoader(cfg.Ingest.TextPatterns, cfg.Ingest.PDFPatterns)
	doc, err := loader.ReadDocument(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading document: %v\n", err)
		os.Exit(1)
	}

	embedder, err := setupEmbedding(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Semantic search not available: %v\n", err)
		os.Exit(1)
	}

	queryCache := cache.NewEmbeddingCache(cfg.Retrieve.QueryCacheSize, cfg.Retrieve.QueryCacheTTL)
	session := usecase.NewSession(embedder, nil,
		usecase.WithExtractor(loader),
		usecase.WithLogger(log.New(os.Stderr)),
		usecase.WithQueryCache(queryCache))

	fmt.Println("SEMANTIC SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	res, err := session.Build(usecase.BuildRequest{
		Document:  doc,
		ChunkSize: cfg.Chunk.Size,
		Overlap:   cfg.Chunk.Overlap,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Chunks indexed: %d\n", res.Chunks)
	fmt.Printf("Model: %s (%s)\n", embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", res.Dimension)
	fmt.Printf("Build time: %s\n", res.Duration.Round(time.Millisecond))
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	results, err := session.Search(*query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		os.Exit(1)
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := r.Chunk.Text
		if runes := []rune(preview); len(runes) > 150 {
			preview = string(runes[:150]) + "..."
		}

		totalScore += r.Score
		fmt.Printf("%d. [%s %.3f] chunk %d (words %d-%d)\n", i+1, rating(r.Score), r.Score, r.Chunk.Index, r.Chunk.StartToken, r.Chunk.EndToken)
		fmt.Printf("   %s\n\n", preview)
	}

	selfHits := 0
	chunks := session.Chunks()
	for _, c := range chunks {
		top, err := session.Search(c.Text, 1)
		if err == nil && len(top) == 1 && top[0].Chunk.Index == c.Index {
			selfHits++
		}
	}

	repeat, err := session.Search(*query, *topK)
	consistent := err == nil && len(repeat) == len(results)
	for i := 0; consistent && i < len(repeat); i++ {
		consistent = repeat[i].Chunk.Index == results[i].Chunk.Index
	}
	hits, misses := queryCache.Stats()

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	fmt.Printf("  Self-retrieval:     %d/%d\n", selfHits, len(chunks))
	fmt.Printf("  Repeat query:       consistent=%t\n", consistent)
	fmt.Printf("  Query cache:        %d hits, %d misses\n", hits, misses)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - semantic search working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need better embeddings or a different chunk size")
	}
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}

func setupEmbedding(cfg *config.Config) (port.Embedder, error) {
	ec := cfg.Embedding
	if ec.Provider == "mock" {
		return embedding.NewMockEmbedder(ec.Dimension), nil
	}
	return embedding.NewOpenAIEmbedder(embedding.Config{
		Provider:   ec.Provider,
		Model:      ec.Model,
		BaseURL:    ec.BaseURL,
		APIKeyEnv:  ec.APIKeyEnv,
		BatchSize:  ec.BatchSize,
		MaxRetries: ec.MaxRetries,
		RetryDelay: 500 * time.Millisecond,
		Timeout:    ec.Timeout,
	})
}
