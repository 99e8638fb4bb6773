package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/fs"
	"docqa/internal/adapter/llm"
	"docqa/internal/domain"
	"docqa/internal/port"
	"docqa/internal/usecase"
)

const retryDelay = 500 * time.Millisecond

// docFlags are the content flags shared by every command that builds an index.
type docFlags struct {
	file      string
	text      string
	chunkSize int
	overlap   int
}

func addDocFlags(cmd *cobra.Command, f *docFlags) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "PDF or text document to index")
	cmd.Flags().StringVarP(&f.text, "text", "t", "", "pasted text to index, or - to read stdin")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "words per chunk (default from config)")
	cmd.Flags().IntVar(&f.overlap, "overlap", -1, "words shared by consecutive chunks (default from config)")
}

// buildRequest turns flags into a BuildRequest, reading the document and stdin.
func buildRequest(cfg *config.Config, f *docFlags, stdin io.Reader) (*usecase.BuildRequest, error) {
	req := &usecase.BuildRequest{
		ChunkSize: cfg.Chunk.Size,
		Overlap:   cfg.Chunk.Overlap,
	}
	if f.chunkSize > 0 {
		req.ChunkSize = f.chunkSize
	}
	if f.overlap >= 0 {
		req.Overlap = f.overlap
	}

	if f.file != "" {
		doc, err := newLoader(cfg).ReadDocument(f.file)
		if err != nil {
			return nil, err
		}
		req.Document = doc
	}

	req.PastedText = f.text
	if f.text == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		req.PastedText = string(data)
	}

	return req, nil
}

func newLoader(cfg *config.Config) *fs.Loader {
	return fs.NewLoader(cfg.Ingest.TextPatterns, cfg.Ingest.PDFPatterns)
}

// newEmbedder creates the configured embedding collaborator. When progress is
// set, remote embedders report each finished sub-batch to it.
func newEmbedder(cfg *config.Config, progress embedding.ProgressFunc) (port.Embedder, error) {
	ec := cfg.Embedding
	if ec.Provider == "mock" {
		return embedding.NewMockEmbedder(ec.Dimension), nil
	}

	e, err := embedding.NewOpenAIEmbedder(embedding.Config{
		Provider:   ec.Provider,
		Model:      ec.Model,
		BaseURL:    ec.BaseURL,
		APIKeyEnv:  ec.APIKeyEnv,
		BatchSize:  ec.BatchSize,
		MaxRetries: ec.MaxRetries,
		RetryDelay: retryDelay,
		Timeout:    ec.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if progress != nil {
		e.SetProgress(progress)
	}
	return e, nil
}

func newLLM(cfg *config.Config) (port.LLM, error) {
	gc := cfg.Generation
	if gc.Provider == "mock" {
		return llm.NewMockLLM(usecase.NotFoundSentinel), nil
	}

	c, err := llm.NewOpenAIClient(llm.Config{
		Provider:    gc.Provider,
		Model:       gc.Model,
		BaseURL:     gc.BaseURL,
		APIKeyEnv:   gc.APIKeyEnv,
		Temperature: gc.Temperature,
		MaxRetries:  gc.MaxRetries,
		RetryDelay:  retryDelay,
		Timeout:     gc.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}
	return c, nil
}

// newSession wires a retrieval session from config. Retrieval-only commands
// pass needLLM=false so no generation credentials are required.
func newSession(cfg *config.Config, needLLM bool, progress embedding.ProgressFunc) (*usecase.Session, error) {
	embedder, err := newEmbedder(cfg, progress)
	if err != nil {
		return nil, err
	}

	var gen port.LLM = llm.NewMockLLM(usecase.NotFoundSentinel)
	if needLLM {
		gen, err = newLLM(cfg)
		if err != nil {
			return nil, err
		}
	}

	opts := []usecase.SessionOption{
		usecase.WithExtractor(newLoader(cfg)),
		usecase.WithLogger(GetLogger()),
		usecase.WithMaxContextChars(cfg.Prompt.MaxContextChars),
	}
	if cfg.Retrieve.QueryCacheSize > 0 {
		opts = append(opts, usecase.WithQueryCache(cache.NewEmbeddingCache(cfg.Retrieve.QueryCacheSize, cfg.Retrieve.QueryCacheTTL)))
	}

	return usecase.NewSession(embedder, gen, opts...), nil
}

// newProgress returns an embedding progress callback that draws a bar on w.
func newProgress(w io.Writer) embedding.ProgressFunc {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(w)
				}),
			)
		}
		bar.Set(done)
	}
}

// buildSession creates a session and indexes the flagged content into it.
func buildSession(cmd *cobra.Command, f *docFlags, needLLM, quiet bool) (*usecase.Session, error) {
	cfg := GetConfig()

	req, err := buildRequest(cfg, f, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}

	var progress embedding.ProgressFunc
	if !quiet {
		progress = newProgress(os.Stderr)
	}

	session, err := newSession(cfg, needLLM, progress)
	if err != nil {
		return nil, err
	}

	res, err := session.Build(*req)
	if err != nil {
		return nil, friendlyBuildError(err)
	}
	GetLogger().Info("indexed document", "chunks", res.Chunks, "dim", res.Dimension, "duration", res.Duration.Round(time.Millisecond))

	return session, nil
}

func friendlyBuildError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoContent):
		return fmt.Errorf("nothing to index: pass a document with -f or text with -t")
	case errors.Is(err, domain.ErrEmptyInput):
		return fmt.Errorf("no chunks created; try a smaller --chunk-size or a different document")
	default:
		return err
	}
}

func topKOrDefault(k int) int {
	if k > 0 {
		return k
	}
	return GetConfig().Retrieve.TopK
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
