package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/blevesearch/bleve"

	"github.com/rkeerthivasan/estateline/models"
)

const rrfK = 60 // reciprocal-rank-fusion constant

// Hybrid pairs the vector index with an in-memory BM25 index over the same
// chunks and fuses both result lists by reciprocal rank. The keyword side is
// rebuilt from chunk texts at startup, so nothing extra is persisted.
type Hybrid struct {
	idx     *Index
	keyword bleve.Index
}

type keywordDoc struct {
	Text string
}

// NewHybrid indexes every entry's text into a mem-only bleve index.
func NewHybrid(idx *Index) (*Hybrid, error) {
	kw, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating keyword index: %w", err)
	}
	for i, e := range idx.Entries {
		if err := kw.Index(entryID(i), keywordDoc{Text: e.Chunk.Text}); err != nil {
			return nil, fmt.Errorf("indexing entry %d: %w", i, err)
		}
	}
	return &Hybrid{idx: idx, keyword: kw}, nil
}

type ranked struct {
	entry int
	score float64
	rank  int
}

// Search runs vector and BM25 retrieval for the query and returns the top k
// fused hits.
func (h *Hybrid) Search(ctx context.Context, query string, embedder Embedder, k int) ([]models.SearchHit, error) {
	if len(h.idx.Entries) == 0 {
		return nil, nil
	}
	if k < 1 {
		k = 1
	}

	vecs, err := embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding returned %d vectors for one query", len(vecs))
	}

	vecRanked := h.idx.rankVector(vecs[0], k)

	kwRanked, err := h.searchKeyword(query, k)
	if err != nil {
		return nil, err
	}

	fused := fuseRRF(vecRanked, kwRanked, k)
	hits := make([]models.SearchHit, 0, len(fused))
	for _, r := range fused {
		hits = append(hits, models.SearchHit{Chunk: h.idx.Entries[r.entry].Chunk, Score: r.score})
	}
	return hits, nil
}

func (h *Hybrid) searchKeyword(q string, k int) ([]ranked, error) {
	query := bleve.NewMatchQuery(q)
	req := bleve.NewSearchRequestOptions(query, k, 0, false)
	res, err := h.keyword.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	out := make([]ranked, 0, len(res.Hits))
	for i, hit := range res.Hits {
		var entry int
		fmt.Sscanf(hit.ID, "%d", &entry)
		out = append(out, ranked{entry: entry, score: hit.Score, rank: i + 1})
	}
	return out, nil
}

func fuseRRF(a, b []ranked, k int) []ranked {
	fusedScores := map[int]float64{}
	add := func(list []ranked) {
		for _, r := range list {
			fusedScores[r.entry] += 1.0 / float64(rrfK+r.rank)
		}
	}
	add(a)
	add(b)

	items := make([]ranked, 0, len(fusedScores))
	for entry, score := range fusedScores {
		items = append(items, ranked{entry: entry, score: score})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].entry < items[j].entry
	})
	if k > len(items) {
		k = len(items)
	}
	for i := range items[:k] {
		items[i].rank = i + 1
	}
	return items[:k]
}
