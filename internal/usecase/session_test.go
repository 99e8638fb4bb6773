package usecase

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/llm"
	"docqa/internal/domain"
)

// switchEmbedder delegates to a MockEmbedder until fail is set.
type switchEmbedder struct {
	inner *embedding.MockEmbedder
	fail  atomic.Bool
}

func newSwitchEmbedder() *switchEmbedder {
	return &switchEmbedder{inner: embedding.NewMockEmbedder(256)}
}

func (e *switchEmbedder) Embed(texts []string) ([][]float32, error) {
	if e.fail.Load() {
		return nil, errors.New("embedding backend unavailable")
	}
	return e.inner.Embed(texts)
}

func (e *switchEmbedder) ModelName() string { return "switch" }

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (l *fakeLLM) Generate(prompt string) (string, error) {
	l.prompts = append(l.prompts, prompt)
	return l.reply, l.err
}

func (l *fakeLLM) ModelName() string { return "fake" }

type fakeExtractor struct {
	text string
}

func (e fakeExtractor) Extract(name string, data []byte) (string, error) {
	return e.text, nil
}

// words returns n distinct tokens with the given prefix.
func words(prefix string, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(out, " ")
}

func TestSessionEmpty(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(64), &fakeLLM{})

	if s.Ready() || s.Len() != 0 || s.Generation() != 0 {
		t.Fatal("new session should be empty")
	}

	results, err := s.Search("anything", 5)
	if err != nil {
		t.Fatalf("search on empty session should not fail: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSessionBuildNoContent(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(64), &fakeLLM{})

	_, err := s.Build(BuildRequest{PastedText: "   \n", ChunkSize: 500, Overlap: 50})
	if !errors.Is(err, domain.ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
	if s.Ready() {
		t.Error("session should stay empty")
	}
}

func TestSessionBuildBlankDocument(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(64), &fakeLLM{})

	_, err := s.Build(BuildRequest{
		Document:  &domain.Document{Name: "a.txt", Data: []byte("  \n\t ")},
		ChunkSize: 10,
		Overlap:   2,
	})
	if !errors.Is(err, domain.ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
	if errors.Is(err, domain.ErrEmptyInput) {
		t.Error("blank document should not reach chunking")
	}
	if s.Ready() {
		t.Error("session should stay empty")
	}
}

func TestSessionBuildInvalidChunking(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(64), &fakeLLM{})

	for _, p := range [][2]int{{0, 0}, {-5, 0}, {3, 3}, {3, 4}, {3, -1}} {
		_, err := s.Build(BuildRequest{PastedText: "some text", ChunkSize: p[0], Overlap: p[1]})
		if !errors.Is(err, domain.ErrInvalidChunking) {
			t.Errorf("size=%d overlap=%d: expected ErrInvalidChunking, got %v", p[0], p[1], err)
		}
	}
}

func TestSessionBuildUnsupportedDocument(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(64), &fakeLLM{})

	_, err := s.Build(BuildRequest{
		Document:  &domain.Document{Name: "scan.png", Data: []byte{0x89}},
		ChunkSize: 10,
	})
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSessionBuildCombinesDocumentAndPaste(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(64), &fakeLLM{},
		WithExtractor(fakeExtractor{text: "doc  alpha\n\nbeta"}))

	res, err := s.Build(BuildRequest{
		Document:   &domain.Document{Name: "policy.pdf"},
		PastedText: "  pasted gamma \n",
		ChunkSize:  10,
		Overlap:    2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Chunks != 1 || res.Generation != 1 || res.Dimension != 64 {
		t.Errorf("unexpected build result %+v", res)
	}

	chunks := s.Chunks()
	if chunks[0].Text != "doc alpha beta pasted gamma" {
		t.Errorf("unexpected chunk text %q", chunks[0].Text)
	}
}

func TestSessionSelfRetrieval(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(256), &fakeLLM{})

	if _, err := s.Build(BuildRequest{PastedText: words("term", 95), ChunkSize: 10, Overlap: 3}); err != nil {
		t.Fatal(err)
	}

	chunks := s.Chunks()
	if len(chunks) != s.Len() {
		t.Fatalf("Chunks and Len disagree: %d vs %d", len(chunks), s.Len())
	}

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has Index %d", i, c.Index)
		}

		results, err := s.Search(c.Text, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].Chunk.Index != i {
			t.Errorf("chunk %d: self search returned chunk %d", i, results[0].Chunk.Index)
		}
		if math.Abs(results[0].Score-1) > 1e-4 {
			t.Errorf("chunk %d: expected score 1, got %f", i, results[0].Score)
		}
	}
}

func TestSessionSearchOrderAndLimit(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(256), &fakeLLM{})

	if _, err := s.Build(BuildRequest{PastedText: words("w", 8), ChunkSize: 5, Overlap: 1}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 chunks, got %d", s.Len())
	}

	results, err := s.Search("w5 w6", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results for top_k=5, got %d", len(results))
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not sorted: %v", results)
	}
	if results[0].Chunk.Index != 1 {
		t.Errorf("expected second chunk first, got %d", results[0].Chunk.Index)
	}

	results, err = s.Search("w5", 0)
	if err != nil || len(results) != 0 {
		t.Errorf("expected empty result for top_k=0, got %v, %v", results, err)
	}
}

func TestSessionEmptyQuery(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(64), &fakeLLM{})
	s.Build(BuildRequest{PastedText: "refund policy", ChunkSize: 5})

	if _, err := s.Search("  \t", 3); !errors.Is(err, domain.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSessionFailedBuildKeepsSnapshot(t *testing.T) {
	emb := newSwitchEmbedder()
	s := NewSession(emb, &fakeLLM{})

	if _, err := s.Build(BuildRequest{PastedText: words("a", 12), ChunkSize: 4, Overlap: 1}); err != nil {
		t.Fatal(err)
	}
	before := s.Chunks()
	gen := s.Generation()

	emb.fail.Store(true)
	_, err := s.Build(BuildRequest{PastedText: words("b", 30), ChunkSize: 4, Overlap: 1})
	if !errors.Is(err, domain.ErrEmbeddingService) {
		t.Fatalf("expected embedding service error, got %v", err)
	}

	if !s.Ready() || s.Generation() != gen || s.Len() != len(before) {
		t.Errorf("failed build changed state: ready=%v gen=%d len=%d", s.Ready(), s.Generation(), s.Len())
	}

	if _, err := s.Build(BuildRequest{ChunkSize: 4}); !errors.Is(err, domain.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
	if s.Generation() != gen {
		t.Error("rejected build must not publish a snapshot")
	}

	emb.fail.Store(false)
	results, err := s.Search("a3", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !strings.Contains(results[0].Chunk.Text, "a3") {
		t.Errorf("expected old snapshot to serve search, got %v", results)
	}
}

func TestSessionRebuildAndClear(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(64), &fakeLLM{})

	s.Build(BuildRequest{PastedText: words("x", 6), ChunkSize: 3, Overlap: 1})
	res, err := s.Build(BuildRequest{PastedText: words("y", 3), ChunkSize: 3, Overlap: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Generation != 2 || s.Len() != 2 {
		t.Errorf("expected generation 2 with 2 chunks, got %d with %d", res.Generation, s.Len())
	}

	s.Clear()
	if s.Ready() || s.Len() != 0 || s.Generation() != 0 {
		t.Error("Clear should return the session to empty")
	}
	if results, err := s.Search("y1", 3); err != nil || len(results) != 0 {
		t.Errorf("expected empty search after Clear, got %v, %v", results, err)
	}
}

func TestSessionSearchEmbeddingFailure(t *testing.T) {
	emb := newSwitchEmbedder()
	s := NewSession(emb, &fakeLLM{})
	s.Build(BuildRequest{PastedText: "refund policy text", ChunkSize: 5})

	emb.fail.Store(true)
	_, err := s.Search("refund", 2)
	var svcErr *domain.EmbeddingServiceError
	if !errors.As(err, &svcErr) {
		t.Errorf("expected *EmbeddingServiceError, got %v", err)
	}
}

func TestSessionQueryCache(t *testing.T) {
	emb := embedding.NewMockEmbedder(64)
	c := cache.NewEmbeddingCache(16, time.Minute)
	s := NewSession(emb, &fakeLLM{}, WithQueryCache(c))

	s.Build(BuildRequest{PastedText: words("q", 20), ChunkSize: 5, Overlap: 1})
	for i := 0; i < 3; i++ {
		if _, err := s.Search("q7 q8", 2); err != nil {
			t.Fatal(err)
		}
	}

	if emb.Calls() != 2 {
		t.Errorf("expected 1 build call and 1 query call, got %d", emb.Calls())
	}

	s.Clear()
	if c.Size() != 0 {
		t.Error("Clear should invalidate cached query vectors")
	}
}

func TestGenerateAnswer(t *testing.T) {
	gen := &fakeLLM{reply: "  Refunds within 30 days.\n"}
	s := NewSession(embedding.NewMockEmbedder(64), gen, WithMaxContextChars(100))

	text, err := s.GenerateAnswer("refund window?", []string{"Refunds within 30 days."})
	if err != nil {
		t.Fatal(err)
	}
	if text != "Refunds within 30 days." {
		t.Errorf("expected trimmed answer, got %q", text)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "Question: refund window?") {
		t.Errorf("unexpected prompt %v", gen.prompts)
	}

	gen.reply = "   "
	if text, _ := s.GenerateAnswer("q", nil); text != "" {
		t.Errorf("expected empty answer, got %q", text)
	}

	gen.err = errors.New("quota exceeded")
	_, err = s.GenerateAnswer("q", nil)
	var genErr *domain.GenerationServiceError
	if !errors.As(err, &genErr) || !errors.Is(err, domain.ErrGenerationService) {
		t.Errorf("expected *GenerationServiceError, got %v", err)
	}
}

func TestGenerateAnswerLogsPromptSize(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	s := NewSession(embedding.NewMockEmbedder(64), &fakeLLM{reply: "ok"}, WithLogger(logger))

	if _, err := s.GenerateAnswer("refund window?", []string{"Refunds within 30 days."}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "generated answer") || !strings.Contains(out, "prompt_tokens=") {
		t.Errorf("expected prompt size in debug log, got %q", out)
	}
}

func TestAsk(t *testing.T) {
	model := llm.NewMockLLM(NotFoundSentinel)
	s := NewSession(embedding.NewMockEmbedder(256), model)

	answer, err := s.Ask("refunds?", 3)
	if err != nil {
		t.Fatal(err)
	}
	if answer.Text != NotFoundSentinel || len(model.Prompts()) != 0 {
		t.Errorf("empty session should answer with the sentinel without calling the model, got %q", answer.Text)
	}

	text := "refunds are issued within thirty days. shipping takes five business days."
	if _, err := s.Build(BuildRequest{PastedText: text, ChunkSize: 6, Overlap: 0}); err != nil {
		t.Fatal(err)
	}

	answer, err = s.Ask("when are refunds issued", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(answer.Hits) != 1 || answer.Text != answer.Hits[0].Chunk.Text {
		t.Errorf("expected answer quoting the top context, got %+v", answer)
	}
	if !strings.Contains(answer.Text, "refunds") {
		t.Errorf("expected refund chunk to rank first, got %q", answer.Text)
	}
}

func TestAskGenerationFailureKeepsHits(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(64), &fakeLLM{err: errors.New("boom")})
	s.Build(BuildRequest{PastedText: words("h", 10), ChunkSize: 5, Overlap: 1})

	answer, err := s.Ask("h2", 2)
	if !errors.Is(err, domain.ErrGenerationService) {
		t.Fatalf("expected generation error, got %v", err)
	}
	if len(answer.Hits) != 2 {
		t.Errorf("expected retrieved hits alongside the error, got %d", len(answer.Hits))
	}
}

func TestSessionPrompt(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(64), &fakeLLM{})
	s.Build(BuildRequest{PastedText: "alpha beta gamma delta", ChunkSize: 2})

	prompt, hits, err := s.Prompt("gamma", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Chunk.Text != "gamma delta" {
		t.Fatalf("unexpected hits %v", hits)
	}
	if !strings.Contains(prompt, "Context:\ngamma delta\n\nQuestion: gamma\nAnswer:") {
		t.Errorf("unexpected prompt:\n%s", prompt)
	}
}

func TestSessionConcurrentSearchDuringRebuild(t *testing.T) {
	s := NewSession(embedding.NewMockEmbedder(128), &fakeLLM{})
	s.Build(BuildRequest{PastedText: words("c", 40), ChunkSize: 8, Overlap: 2})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				results, err := s.Search("c3 c4", 3)
				if err != nil {
					t.Error(err)
					return
				}
				if len(results) > 3 {
					t.Errorf("expected at most 3 results, got %d", len(results))
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		if _, err := s.Build(BuildRequest{PastedText: words("c", 20+i*5), ChunkSize: 8, Overlap: 2}); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()

	if s.Generation() != 11 {
		t.Errorf("expected generation 11, got %d", s.Generation())
	}
}
