package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"docqa/internal/domain"
)

// ContextResult is a retrieved chunk as printed by the CLI.
type ContextResult struct {
	Chunk int     `json:"chunk"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

func toContextResults(hits []domain.ScoredChunk) []ContextResult {
	out := make([]ContextResult, len(hits))
	for i, h := range hits {
		out[i] = ContextResult{Chunk: h.Chunk.Index, Score: h.Score, Text: h.Chunk.Text}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeContexts prints ranked contexts, cutting long chunks to maxChars.
func writeContexts(w io.Writer, hits []domain.ScoredChunk, maxChars int) {
	for i, h := range hits {
		fmt.Fprintf(w, "--- [%d] chunk %d (score: %.3f) ---\n", i+1, h.Chunk.Index, h.Score)
		text := h.Chunk.Text
		if maxChars > 0 {
			text = truncate(text, maxChars)
		}
		fmt.Fprintln(w, indent(text, "  "))
		fmt.Fprintln(w)
	}
}
