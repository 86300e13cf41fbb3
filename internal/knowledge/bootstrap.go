package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rkeerthivasan/estateline/config"
	"github.com/rkeerthivasan/estateline/internal/index"
	"github.com/rkeerthivasan/estateline/internal/ingest"
)

// Bootstrap is the knowledge base ready for query traffic: the index (plus
// its searcher in the configured retrieval mode) and the trusted profile
// text. Built once at startup, read-only afterwards.
type Bootstrap struct {
	Index    *index.Index
	Searcher Searcher
	Profile  string
}

// Open loads the persisted index when it exists and still matches the
// current document set, and otherwise rebuilds and persists it. Rebuilding
// pays one embedding call per chunk batch, so the load path is preferred;
// the checksum guards against serving an index built from different
// sources.
func Open(ctx context.Context, cfg config.KnowledgeConfig, embedder index.Embedder, rebuild bool, logger *log.Logger) (*Bootstrap, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[KNOW] ", log.LstdFlags)
	}

	loader := ingest.NewLoader(logger)
	docs := loader.LoadAll(cfg.CSVFiles, cfg.TextFiles)
	checksum := index.SourceChecksum(docs)

	var idx *index.Index
	if !rebuild {
		loaded, err := index.Load(cfg.IndexPath)
		switch {
		case err == nil && loaded.Checksum == checksum:
			logger.Printf("loaded index from %s (%d entries)", cfg.IndexPath, loaded.Len())
			idx = loaded
		case err == nil:
			logger.Printf("source documents changed since index was built; rebuilding")
		case errors.Is(err, index.ErrNotFound):
			logger.Printf("no index at %s; building", cfg.IndexPath)
		default:
			logger.Printf("warn: %v; rebuilding", err)
		}
	}

	if idx == nil {
		chunker, err := ingest.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
		if err != nil {
			return nil, err
		}
		chunks := chunker.Split(docs)
		logger.Printf("embedding %d chunks from %d documents", len(chunks), len(docs))
		idx, err = index.Build(ctx, chunks, embedder, checksum)
		if err != nil {
			return nil, fmt.Errorf("building index: %w", err)
		}
		if err := idx.Save(cfg.IndexPath); err != nil {
			return nil, fmt.Errorf("persisting index: %w", err)
		}
		logger.Printf("saved index to %s (%d entries)", cfg.IndexPath, idx.Len())
	}

	var searcher Searcher = idx
	if cfg.Retrieval == "hybrid" {
		hybrid, err := index.NewHybrid(idx)
		if err != nil {
			return nil, fmt.Errorf("enabling hybrid retrieval: %w", err)
		}
		searcher = hybrid
	}

	profile, err := loader.LoadProfile(cfg.ProfilePath)
	if err != nil {
		// the profile path degrades to its fixed fallback reply
		logger.Printf("warn: %v", err)
	}

	return &Bootstrap{Index: idx, Searcher: searcher, Profile: profile}, nil
}
