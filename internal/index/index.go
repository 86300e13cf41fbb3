package index

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/rkeerthivasan/estateline/models"
)

// ErrNotFound is returned by Load when no persisted index exists at the path.
var ErrNotFound = errors.New("index not found")

const embedBatchSize = 64

// Embedder maps texts to fixed-dimension vectors. provider.Provider
// satisfies it.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Entry is one embedded chunk. All entries in an index share the dimension
// fixed by the first embedded chunk.
type Entry struct {
	Vector []float32
	Chunk  models.Chunk
}

// Index is a nearest-neighbor structure over embedded chunks. Read-only
// after Build/Load, safe for concurrent Search.
type Index struct {
	Dimension int
	Checksum  string
	Entries   []Entry
}

// persisted is the on-disk gob form.
type persisted struct {
	Dimension int
	Checksum  string
	Entries   []Entry
}

// SourceChecksum hashes the document texts that feed an index, so a loaded
// index can be checked against the current source set.
func SourceChecksum(docs []models.Document) string {
	h := sha256.New()
	for _, d := range docs {
		h.Write([]byte(d.Text))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Build embeds every chunk and assembles an in-memory index. Any embedding
// failure aborts the whole build; a partial index is never returned.
func Build(ctx context.Context, chunks []models.Chunk, embedder Embedder, checksum string) (*Index, error) {
	idx := &Index{Checksum: checksum}
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		vecs, err := embedder.CreateEmbedding(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks %d..%d: %w", start, end, err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedding returned %d vectors for %d texts", len(vecs), len(texts))
		}
		for i, v := range vecs {
			if idx.Dimension == 0 {
				idx.Dimension = len(v)
			}
			if len(v) != idx.Dimension {
				return nil, fmt.Errorf("embedding dimension changed: got %d, want %d", len(v), idx.Dimension)
			}
			idx.Entries = append(idx.Entries, Entry{Vector: v, Chunk: chunks[start+i]})
		}
	}
	return idx, nil
}

// Load deserializes a previously persisted index. Returns ErrNotFound when
// the path does not exist, and a load error when its contents cannot be
// decoded.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	var p persisted
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}
	for _, e := range p.Entries {
		if len(e.Vector) != p.Dimension {
			return nil, fmt.Errorf("decoding index: entry dimension %d does not match %d", len(e.Vector), p.Dimension)
		}
	}
	return &Index{Dimension: p.Dimension, Checksum: p.Checksum, Entries: p.Entries}, nil
}

// Save persists the index. It writes to a temp file and renames, so a crash
// mid-write never leaves a corrupt index behind.
func (idx *Index) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating index file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(persisted{Dimension: idx.Dimension, Checksum: idx.Checksum, Entries: idx.Entries}); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing index: %w", err)
	}
	return os.Rename(tmp, path)
}

// Len reports the number of indexed entries.
func (idx *Index) Len() int { return len(idx.Entries) }

// Search embeds the query and returns the k nearest entries by cosine
// similarity, ties broken by insertion order. k larger than the index
// returns everything.
func (idx *Index) Search(ctx context.Context, query string, embedder Embedder, k int) ([]models.SearchHit, error) {
	if len(idx.Entries) == 0 {
		return nil, nil
	}
	vecs, err := embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding returned %d vectors for one query", len(vecs))
	}
	return idx.searchVector(vecs[0], k), nil
}

func (idx *Index) searchVector(q []float32, k int) []models.SearchHit {
	ranked := idx.rankVector(q, k)
	hits := make([]models.SearchHit, 0, len(ranked))
	for _, r := range ranked {
		hits = append(hits, models.SearchHit{Chunk: idx.Entries[r.entry].Chunk, Score: r.score})
	}
	return hits
}

// rankVector scores every entry against q and returns the top k as
// (entry, score, rank) triples. The stable sort keeps insertion order
// inside score ties.
func (idx *Index) rankVector(q []float32, k int) []ranked {
	if k < 1 {
		k = 1
	}
	order := make([]int, len(idx.Entries))
	scores := make([]float64, len(idx.Entries))
	for i, e := range idx.Entries {
		order[i] = i
		scores[i] = cosine(q, e.Vector)
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	if k > len(order) {
		k = len(order)
	}
	out := make([]ranked, 0, k)
	for i, j := range order[:k] {
		out = append(out, ranked{entry: j, score: scores[j], rank: i + 1})
	}
	return out
}

// entryID keys an entry in the keyword side index.
func entryID(i int) string { return strconv.Itoa(i) }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
