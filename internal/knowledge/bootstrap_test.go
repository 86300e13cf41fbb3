package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rkeerthivasan/estateline/config"
)

// hashEmbedder gives every text a deterministic vector without a provider.
type hashEmbedder struct {
	calls int
}

func (h *hashEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	h.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		var a, b float32
		for _, r := range t {
			a += float32(r % 7)
			b += float32(r % 13)
		}
		out[i] = []float32{a, b, float32(len(t))}
	}
	return out, nil
}

func bootstrapConfig(t *testing.T) config.KnowledgeConfig {
	t.Helper()
	dir := t.TempDir()
	txt := filepath.Join(dir, "market.txt")
	if err := os.WriteFile(txt, []byte("Average villa prices in the marina rose steadily through 2025."), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	profile := filepath.Join(dir, "profile.txt")
	if err := os.WriteFile(profile, []byte("Baaz Landmark, founded 2010."), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return config.KnowledgeConfig{
		TextFiles:    []string{txt},
		ProfilePath:  profile,
		IndexPath:    filepath.Join(dir, "index.gob"),
		ChunkSize:    40,
		ChunkOverlap: 8,
		TopK:         2,
		Retrieval:    "vector",
	}
}

func TestOpen_BuildThenLoad(t *testing.T) {
	cfg := bootstrapConfig(t)
	emb := &hashEmbedder{}

	b, err := Open(context.Background(), cfg, emb, false, nil)
	if err != nil {
		t.Fatalf("Open (build): %v", err)
	}
	if b.Index.Len() == 0 {
		t.Fatal("built index is empty")
	}
	if b.Profile != "Baaz Landmark, founded 2010." {
		t.Errorf("profile = %q", b.Profile)
	}
	buildCalls := emb.calls
	if buildCalls == 0 {
		t.Fatal("embedder never called during build")
	}

	// second open must reuse the persisted index: no new embedding calls
	b2, err := Open(context.Background(), cfg, emb, false, nil)
	if err != nil {
		t.Fatalf("Open (load): %v", err)
	}
	if emb.calls != buildCalls {
		t.Errorf("embedder called %d more times on load path", emb.calls-buildCalls)
	}
	if b2.Index.Len() != b.Index.Len() {
		t.Errorf("loaded %d entries, built %d", b2.Index.Len(), b.Index.Len())
	}
}

func TestOpen_SourceChangeRebuilds(t *testing.T) {
	cfg := bootstrapConfig(t)
	emb := &hashEmbedder{}

	if _, err := Open(context.Background(), cfg, emb, false, nil); err != nil {
		t.Fatalf("Open (build): %v", err)
	}
	calls := emb.calls

	if err := os.WriteFile(cfg.TextFiles[0], []byte("Completely new market commentary for 2026."), 0o644); err != nil {
		t.Fatalf("rewrite source: %v", err)
	}
	if _, err := Open(context.Background(), cfg, emb, false, nil); err != nil {
		t.Fatalf("Open (rebuild): %v", err)
	}
	if emb.calls == calls {
		t.Error("index not rebuilt after source change")
	}
}

func TestOpen_ForcedRebuildIgnoresPersisted(t *testing.T) {
	cfg := bootstrapConfig(t)
	emb := &hashEmbedder{}

	if _, err := Open(context.Background(), cfg, emb, false, nil); err != nil {
		t.Fatalf("Open (build): %v", err)
	}
	calls := emb.calls
	if _, err := Open(context.Background(), cfg, emb, true, nil); err != nil {
		t.Fatalf("Open (forced): %v", err)
	}
	if emb.calls == calls {
		t.Error("forced rebuild reused the persisted index")
	}
}

func TestOpen_MissingProfileIsNotFatal(t *testing.T) {
	cfg := bootstrapConfig(t)
	cfg.ProfilePath = filepath.Join(t.TempDir(), "gone.txt")

	b, err := Open(context.Background(), cfg, &hashEmbedder{}, false, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if b.Profile != "" {
		t.Errorf("profile = %q, want empty", b.Profile)
	}
}

func TestOpen_HybridRetrieval(t *testing.T) {
	cfg := bootstrapConfig(t)
	cfg.Retrieval = "hybrid"

	b, err := Open(context.Background(), cfg, &hashEmbedder{}, false, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	hits, err := b.Searcher.Search(context.Background(), "villa prices marina", &hashEmbedder{}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 {
		t.Error("hybrid searcher returned no hits")
	}
}
