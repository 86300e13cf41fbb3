package ingest

import (
	"fmt"
	"strconv"

	"github.com/rkeerthivasan/estateline/models"
)

// Chunker splits documents into overlapping fixed-size rune windows. The
// trailing `overlap` runes of one chunk are repeated at the start of the
// next, so retrieval does not lose context at window boundaries.
type Chunker struct {
	window  int
	overlap int
}

// NewChunker returns an error if overlap is not smaller than window; equal
// sizes would never advance.
func NewChunker(window, overlap int) (*Chunker, error) {
	if window <= 0 {
		return nil, fmt.Errorf("chunk window must be positive, got %d", window)
	}
	if overlap < 0 || overlap >= window {
		return nil, fmt.Errorf("chunk overlap must be in [0, window), got %d", overlap)
	}
	return &Chunker{window: window, overlap: overlap}, nil
}

// Split emits chunks covering every document's full text left-to-right.
// A document shorter than the window yields exactly one chunk.
func (c *Chunker) Split(docs []models.Document) []models.Chunk {
	var chunks []models.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.splitOne(doc)...)
	}
	return chunks
}

func (c *Chunker) splitOne(doc models.Document) []models.Chunk {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil
	}

	step := c.window - c.overlap
	var chunks []models.Chunk
	for start, idx := 0, 0; start < len(runes); start, idx = start+step, idx+1 {
		end := start + c.window
		if end > len(runes) {
			end = len(runes)
		}
		meta := make(map[string]string, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta["source_id"] = doc.SourceID
		meta["chunk"] = strconv.Itoa(idx)
		chunks = append(chunks, models.Chunk{Text: string(runes[start:end]), Metadata: meta})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Overlap reports the configured overlap length in runes.
func (c *Chunker) Overlap() int { return c.overlap }
