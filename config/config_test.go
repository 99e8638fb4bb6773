package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunk.Size != 500 || cfg.Chunk.Overlap != 50 {
		t.Errorf("expected chunk 500/50, got %d/%d", cfg.Chunk.Size, cfg.Chunk.Overlap)
	}
	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Prompt.MaxContextChars != 3500 {
		t.Errorf("expected MaxContextChars=3500, got %d", cfg.Prompt.MaxContextChars)
	}
	if cfg.Embedding.BatchSize != 100 {
		t.Errorf("expected BatchSize=100, got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Generation.Model != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %s", cfg.Generation.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "docqa.yaml")

	content := `
chunk:
  size: 200
  overlap: 20
retrieve:
  top_k: 8
  query_cache_ttl: 90s
embedding:
  provider: mock
  dimension: 64
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunk.Size != 200 || cfg.Chunk.Overlap != 20 {
		t.Errorf("expected chunk 200/20, got %d/%d", cfg.Chunk.Size, cfg.Chunk.Overlap)
	}
	if cfg.Retrieve.TopK != 8 {
		t.Errorf("expected TopK=8, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.QueryCacheTTL != 90*time.Second {
		t.Errorf("expected 90s TTL, got %v", cfg.Retrieve.QueryCacheTTL)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimension != 64 {
		t.Errorf("unexpected embedding config %+v", cfg.Embedding)
	}
	// Untouched sections keep their defaults.
	if cfg.Generation.Model != "gpt-4o-mini" {
		t.Errorf("expected default generation model, got %s", cfg.Generation.Model)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tmpDir := t.TempDir()

	cases := map[string]string{
		"overlap":  "chunk:\n  size: 10\n  overlap: 10\n",
		"provider": "embedding:\n  provider: carrier-pigeon\n",
		"syntax":   "chunk: [unclosed\n",
	}

	for name, content := range cases {
		path := filepath.Join(tmpDir, name+".yaml")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := EnsureDataDir(tmpDir); err != nil {
		t.Fatal(err)
	}

	content := `
prompt:
  max_context_chars: 1200
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".docqa", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Prompt.MaxContextChars != 1200 {
		t.Errorf("expected 1200, got %d", cfg.Prompt.MaxContextChars)
	}

	// docqa.yaml takes precedence over .docqa/config.yaml
	if err := os.WriteFile(filepath.Join(tmpDir, "docqa.yaml"), []byte("prompt:\n  max_context_chars: 900\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, _ = LoadFromDir(tmpDir)
	if cfg.Prompt.MaxContextChars != 900 {
		t.Errorf("expected 900, got %d", cfg.Prompt.MaxContextChars)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docqa.yaml")

	cfg := DefaultConfig()
	cfg.Generation.Provider = "ollama"
	cfg.Retrieve.QueryCacheTTL = 3 * time.Minute
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Generation.Provider != "ollama" || loaded.Retrieve.QueryCacheTTL != 3*time.Minute {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestNotesDBPath(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.NotesDBPath("/work"); got != filepath.Join("/work", ".docqa", "notes.db") {
		t.Errorf("unexpected default path %s", got)
	}

	cfg.Notes.Path = "data/notes.db"
	if got := cfg.NotesDBPath("/work"); got != filepath.Join("/work", "data", "notes.db") {
		t.Errorf("unexpected relative path %s", got)
	}

	cfg.Notes.Path = "/var/lib/notes.db"
	if got := cfg.NotesDBPath("/work"); got != "/var/lib/notes.db" {
		t.Errorf("unexpected absolute path %s", got)
	}
}
