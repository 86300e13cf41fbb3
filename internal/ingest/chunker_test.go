package ingest

import (
	"strings"
	"testing"

	"github.com/rkeerthivasan/estateline/models"
)

func TestNewChunker_RejectsBadOverlap(t *testing.T) {
	if _, err := NewChunker(100, 100); err == nil {
		t.Error("expected error for overlap == window")
	}
	if _, err := NewChunker(100, 150); err == nil {
		t.Error("expected error for overlap > window")
	}
	if _, err := NewChunker(0, 0); err == nil {
		t.Error("expected error for zero window")
	}
}

func TestSplit_ShortDocumentSingleChunk(t *testing.T) {
	c, err := NewChunker(100, 20)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	doc := models.Document{SourceID: "a.txt", Text: "short text", Metadata: map[string]string{"source": "a.txt"}}
	chunks := c.Split([]models.Document{doc})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "short text" {
		t.Errorf("chunk text = %q", chunks[0].Text)
	}
	if chunks[0].Metadata["source"] != "a.txt" || chunks[0].Metadata["chunk"] != "0" {
		t.Errorf("unexpected metadata: %v", chunks[0].Metadata)
	}
}

func TestSplit_Reconstruction(t *testing.T) {
	c, err := NewChunker(50, 10)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 20)
	doc := models.Document{SourceID: "fox", Text: text}
	chunks := c.Split([]models.Document{doc})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// dropping each chunk's leading overlap reconstructs the source
	var b strings.Builder
	for i, ch := range chunks {
		runes := []rune(ch.Text)
		if i == 0 {
			b.WriteString(ch.Text)
			continue
		}
		if len(runes) <= c.Overlap() {
			t.Fatalf("chunk %d shorter than overlap", i)
		}
		b.WriteString(string(runes[c.Overlap():]))
	}
	if b.String() != text {
		t.Error("reconstructed text does not match source")
	}
}

func TestSplit_OverlapContinuity(t *testing.T) {
	c, _ := NewChunker(30, 5)
	text := strings.Repeat("abcdefghij", 10)
	chunks := c.Split([]models.Document{{SourceID: "x", Text: text}})
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		tail := string(prev[len(prev)-5:])
		head := string(cur[:5])
		if tail != head {
			t.Errorf("chunk %d: overlap mismatch: tail %q head %q", i, tail, head)
		}
	}
}

func TestSplit_EmptyDocument(t *testing.T) {
	c, _ := NewChunker(10, 2)
	chunks := c.Split([]models.Document{{SourceID: "empty", Text: ""}})
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty document, got %d", len(chunks))
	}
}
