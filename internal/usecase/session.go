package usecase

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/fs"
	"docqa/internal/adapter/index"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// BuildRequest describes the content of one index build. Document is nil
// when only pasted text is supplied.
type BuildRequest struct {
	Document   *domain.Document
	PastedText string
	ChunkSize  int
	Overlap    int
}

// BuildResult summarizes a successful build.
type BuildResult struct {
	Chunks     int
	Dimension  int
	Generation uint64
	Duration   time.Duration
}

// Answer is a generated reply together with the contexts it was grounded on.
type Answer struct {
	Text string
	Hits []domain.ScoredChunk
}

// snapshot is one immutable build: chunk i is row i of the index.
type snapshot struct {
	chunks     []domain.Chunk
	index      *index.Flat
	generation uint64
}

// Session holds at most one searchable snapshot of a document. It starts
// empty; Build replaces the snapshot only after every step has succeeded, so
// a failed build leaves the previous snapshot in place.
type Session struct {
	unit       *embedding.Unit
	queries    cache.QueryEmbedder
	queryCache *cache.EmbeddingCache
	llm        port.LLM
	extractor  port.Extractor
	tokenizer  *analyzer.Tokenizer
	logger     *log.Logger
	maxChars   int

	buildMu sync.Mutex
	mu      sync.RWMutex
	snap    *snapshot
	nextGen uint64
}

type SessionOption func(*Session)

// WithExtractor sets the document decoder used by Build.
func WithExtractor(e port.Extractor) SessionOption {
	return func(s *Session) { s.extractor = e }
}

func WithLogger(l *log.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithMaxContextChars bounds the context placed in generation prompts.
func WithMaxContextChars(n int) SessionOption {
	return func(s *Session) { s.maxChars = n }
}

// WithQueryCache memoizes query embeddings across searches.
func WithQueryCache(c *cache.EmbeddingCache) SessionOption {
	return func(s *Session) { s.queryCache = c }
}

func NewSession(embedder port.Embedder, llm port.LLM, opts ...SessionOption) *Session {
	s := &Session{
		unit:      embedding.NewUnit(embedder),
		llm:       llm,
		tokenizer: analyzer.NewTokenizer(),
		maxChars:  DefaultMaxContextChars,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.extractor == nil {
		s.extractor = fs.NewLoader(nil, nil)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.queries = s.unit
	if s.queryCache != nil {
		s.queries = cache.NewCachedEmbedder(s.unit, s.queryCache)
	}

	return s
}

// Build extracts, chunks, embeds and indexes the request content, then
// publishes the result as the new snapshot.
func (s *Session) Build(req BuildRequest) (BuildResult, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()

	if err := validateChunking(req.ChunkSize, req.Overlap); err != nil {
		return BuildResult{}, err
	}

	text, err := s.combineContent(req)
	if err != nil {
		return BuildResult{}, err
	}

	var chk port.Chunker
	chk, err = chunker.NewWindowChunker(req.ChunkSize, req.Overlap)
	if err != nil {
		return BuildResult{}, err
	}
	chunks, err := chk.Chunk(analyzer.Normalize(text))
	if err != nil {
		return BuildResult{}, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.unit.Embed(texts)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to embed chunks: %w", err)
	}

	idx, err := index.Build(vectors)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to build index: %w", err)
	}

	s.mu.Lock()
	s.nextGen++
	snap := &snapshot{chunks: chunks, index: idx, generation: s.nextGen}
	s.snap = snap
	s.mu.Unlock()

	result := BuildResult{
		Chunks:     len(chunks),
		Dimension:  idx.Dimension(),
		Generation: snap.generation,
		Duration:   time.Since(start),
	}
	s.logger.Debug("index built",
		"chunks", result.Chunks,
		"dim", result.Dimension,
		"generation", result.Generation,
		"model", s.unit.ModelName(),
		"duration", result.Duration)

	return result, nil
}

func validateChunking(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidChunking, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidChunking, size, overlap)
	}
	return nil
}

// combineContent places document text before pasted text, one newline apart.
func (s *Session) combineContent(req BuildRequest) (string, error) {
	var text string
	if req.Document != nil {
		extracted, err := s.extractor.Extract(req.Document.Name, req.Document.Data)
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(extracted)
	}

	pasted := strings.TrimSpace(req.PastedText)
	if pasted != "" {
		if text != "" {
			text = text + "\n" + pasted
		} else {
			text = pasted
		}
	}

	if text == "" {
		return "", domain.ErrNoContent
	}
	return text, nil
}

func (s *Session) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Search returns up to topK chunks ranked by similarity to query. An empty
// session yields no results and no error.
func (s *Session) Search(query string, topK int) ([]domain.ScoredChunk, error) {
	snap := s.current()
	if snap == nil {
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if topK <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	vec, err := s.queries.EmbedOne(query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := snap.index.Query(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]domain.ScoredChunk, len(hits))
	for i, h := range hits {
		results[i] = domain.ScoredChunk{Chunk: snap.chunks[h.Position], Score: h.Score}
	}

	s.logger.Debug("search", "query", query, "top_k", topK, "hits", len(results), "generation", snap.generation)
	return results, nil
}

// Prompt retrieves contexts for query and renders the generation prompt
// without calling the model.
func (s *Session) Prompt(query string, topK int) (string, []domain.ScoredChunk, error) {
	hits, err := s.Search(query, topK)
	if err != nil {
		return "", nil, err
	}
	return BuildPrompt(query, domain.Texts(hits), s.maxChars), hits, nil
}

// GenerateAnswer asks the model to answer query from contexts only. An empty
// reply is returned as "".
func (s *Session) GenerateAnswer(query string, contexts []string) (string, error) {
	prompt := BuildPrompt(query, contexts, s.maxChars)

	start := time.Now()
	text, err := s.llm.Generate(prompt)
	if err != nil {
		return "", &domain.GenerationServiceError{Err: err}
	}

	s.logger.Debug("generated answer",
		"model", s.llm.ModelName(),
		"contexts", len(contexts),
		"prompt_chars", len(prompt),
		"prompt_tokens", s.tokenizer.CountTokens(prompt),
		"duration", time.Since(start))
	return strings.TrimSpace(text), nil
}

// Ask retrieves contexts and generates an answer from them. When nothing is
// retrieved the model is not called and the not-found sentinel is returned.
// On generation failure the retrieved hits are still returned with the error.
func (s *Session) Ask(query string, topK int) (Answer, error) {
	hits, err := s.Search(query, topK)
	if err != nil {
		return Answer{}, err
	}
	if len(hits) == 0 {
		return Answer{Text: NotFoundSentinel}, nil
	}

	text, err := s.GenerateAnswer(query, domain.Texts(hits))
	if err != nil {
		return Answer{Hits: hits}, err
	}
	return Answer{Text: text, Hits: hits}, nil
}

// Clear drops the snapshot and returns the session to its empty state.
func (s *Session) Clear() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()

	if s.queryCache != nil {
		s.queryCache.Invalidate()
	}
	s.logger.Debug("index cleared")
}

// Ready reports whether a snapshot is available for search.
func (s *Session) Ready() bool {
	return s.current() != nil
}

// Len returns the number of indexed chunks.
func (s *Session) Len() int {
	snap := s.current()
	if snap == nil {
		return 0
	}
	return len(snap.chunks)
}

// Chunks returns a copy of the indexed chunks in order.
func (s *Session) Chunks() []domain.Chunk {
	snap := s.current()
	if snap == nil {
		return nil
	}
	return append([]domain.Chunk(nil), snap.chunks...)
}

// Generation identifies the live snapshot; it is 0 when the session is empty.
func (s *Session) Generation() uint64 {
	snap := s.current()
	if snap == nil {
		return 0
	}
	return snap.generation
}
