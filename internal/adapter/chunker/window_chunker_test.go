package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"docqa/internal/domain"
)

func TestWindowChunkerBasic(t *testing.T) {
	chunker, err := NewWindowChunker(3, 1)
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := chunker.Chunk("A B C D E F")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"A B C", "C D E", "E F"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Text != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunk.Text)
		}
		if chunk.Index != i {
			t.Errorf("chunk %d: expected Index %d, got %d", i, i, chunk.Index)
		}
	}

	if chunks[2].StartToken != 4 || chunks[2].EndToken != 6 {
		t.Errorf("expected last chunk to span [4,6), got [%d,%d)", chunks[2].StartToken, chunks[2].EndToken)
	}
}

func TestWindowChunkerOverlap(t *testing.T) {
	var words []string
	for i := 0; i < 137; i++ {
		words = append(words, fmt.Sprintf("w%d", i))
	}
	text := strings.Join(words, "  \n")

	size, overlap := 10, 4
	chunker, err := NewWindowChunker(size, overlap)
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := chunker.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i+1 < len(chunks); i++ {
		cur := strings.Fields(chunks[i].Text)
		next := strings.Fields(chunks[i+1].Text)
		if len(cur) != size {
			t.Errorf("chunk %d: expected %d words, got %d", i, size, len(cur))
		}
		tail := strings.Join(cur[len(cur)-overlap:], " ")
		head := strings.Join(next[:overlap], " ")
		if tail != head {
			t.Errorf("chunks %d and %d: overlap mismatch %q vs %q", i, i+1, tail, head)
		}
	}

	last := chunks[len(chunks)-1]
	if last.EndToken != len(words) {
		t.Errorf("expected last chunk to end at %d, got %d", len(words), last.EndToken)
	}
}

func TestWindowChunkerSingleToken(t *testing.T) {
	chunker, err := NewWindowChunker(500, 50)
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := chunker.Chunk("  refund  ")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].Text != "refund" {
		t.Errorf("expected single chunk 'refund', got %+v", chunks)
	}
}

func TestWindowChunkerEmptyInput(t *testing.T) {
	chunker, err := NewWindowChunker(3, 1)
	if err != nil {
		t.Fatal(err)
	}

	for _, text := range []string{"", "   ", "\n\t\r\n"} {
		_, err := chunker.Chunk(text)
		if !errors.Is(err, domain.ErrEmptyInput) {
			t.Errorf("Chunk(%q): expected ErrEmptyInput, got %v", text, err)
		}
	}
}

func TestWindowChunkerStepClamp(t *testing.T) {
	chunker, err := NewWindowChunker(2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if chunker.Step() != 1 {
		t.Errorf("expected step 1, got %d", chunker.Step())
	}

	chunks, err := chunker.Chunk("a b c")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a b", "b c", "c"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if chunks[i].Text != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i].Text)
		}
	}
}

func TestWindowChunkerDeterministic(t *testing.T) {
	chunker, _ := NewWindowChunker(4, 2)
	text := "the quick brown fox jumps over the lazy dog again and again"

	a, _ := chunker.Chunk(text)
	b, _ := chunker.Chunk(text)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestNewWindowChunkerInvalid(t *testing.T) {
	if _, err := NewWindowChunker(0, 0); !errors.Is(err, domain.ErrInvalidChunking) {
		t.Errorf("expected ErrInvalidChunking for size 0, got %v", err)
	}
	if _, err := NewWindowChunker(5, -1); !errors.Is(err, domain.ErrInvalidChunking) {
		t.Errorf("expected ErrInvalidChunking for negative overlap, got %v", err)
	}
}
