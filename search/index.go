// Package search builds a semantic index over the fused element list and
// answers ranked text queries and spatial region queries against it. The
// index is built once per page snapshot and read concurrently; invalidation
// is explicit.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/embedding"
)

var (
	// ErrEmptyQuery rejects blank search queries before any computation.
	ErrEmptyQuery = errors.New("search: empty query")
	// ErrNotIndexed is returned when searching before Build.
	ErrNotIndexed = errors.New("search: index not built")
)

// Result pairs an element with its relevance score.
type Result struct {
	Element *element.Element `json:"element"`
	Score   float64          `json:"score"`
}

// Index is the semantic index over one snapshot's fused elements.
type Index struct {
	cfg      Config
	embedder embedding.Embedder
	reranker embedding.Reranker

	mu       sync.RWMutex
	elements []*element.Element
	texts    []string
	vectors  [][]float32
}

// NewIndex creates an index. reranker may be nil to skip the rerank stage.
func NewIndex(cfg Config, embedder embedding.Embedder, reranker embedding.Reranker) *Index {
	cfg.applyDefaults()
	return &Index{cfg: cfg, embedder: embedder, reranker: reranker}
}

// Build embeds every element and stores L2-normalized vectors. Building is
// idempotent: once an index exists, repeated calls are no-ops until
// Invalidate.
func (ix *Index) Build(ctx context.Context, elements []*element.Element) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.vectors != nil {
		ix.cfg.Logger.Info("search: index already exists, skipping reindex")
		return nil
	}

	texts := make([]string, len(elements))
	for i, el := range elements {
		texts[i] = EmbeddingText(el)
	}

	vecs, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("search: embed elements: %w", err)
	}
	for _, v := range vecs {
		embedding.Normalize(v)
	}

	ix.elements = elements
	ix.texts = texts
	ix.vectors = vecs
	if ix.vectors == nil {
		ix.vectors = [][]float32{}
	}
	return nil
}

// Vectors returns the normalized embedding vectors aligned with Elements.
// The slice is shared with the index; treat it as read-only.
func (ix *Index) Vectors() [][]float32 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.vectors
}

// Restore installs a persisted element list and its vectors without calling
// the embedder, recomputing embedding texts locally. It replaces any existing
// index. A nil vector leaves that element unsearchable but present in region
// and listing queries.
func (ix *Index) Restore(elements []*element.Element, vectors [][]float32) error {
	if len(vectors) != len(elements) {
		return fmt.Errorf("search: restore: %d vectors for %d elements", len(vectors), len(elements))
	}

	texts := make([]string, len(elements))
	for i, el := range elements {
		texts[i] = EmbeddingText(el)
	}
	for _, v := range vectors {
		embedding.Normalize(v)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.elements = elements
	ix.texts = texts
	ix.vectors = vectors
	if ix.vectors == nil {
		ix.vectors = [][]float32{}
	}
	return nil
}

// Invalidate drops the index, forcing a rebuild on next Build.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.elements = nil
	ix.texts = nil
	ix.vectors = nil
}

// Indexed reports whether an index currently exists.
func (ix *Index) Indexed() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.vectors != nil
}

// Elements returns the indexed element list.
func (ix *Index) Elements() []*element.Element {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.elements
}

// Search embeds the query, retrieves the top-N by temperature-scaled cosine
// similarity, optionally blends in cross-encoder scores, and returns the
// top-K results by combined score descending. A rerank failure degrades to
// the initial ranking rather than failing the query.
func (ix *Index) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.vectors == nil {
		return nil, ErrNotIndexed
	}
	if len(ix.vectors) == 0 {
		return nil, nil
	}

	qvec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}
	embedding.Normalize(qvec)

	type scored struct {
		idx   int
		score float64
	}
	initial := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		initial[i] = scored{idx: i, score: embedding.CosineSimilarity(qvec, v) / ix.cfg.Temperature}
	}
	sort.SliceStable(initial, func(a, b int) bool { return initial[a].score > initial[b].score })

	topN := ix.cfg.TopN
	if topN > len(initial) {
		topN = len(initial)
	}
	initial = initial[:topN]

	if ix.reranker != nil {
		docs := make([]string, len(initial))
		for i, s := range initial {
			docs[i] = ix.texts[s.idx]
		}
		rescores, err := ix.reranker.Rerank(ctx, query, docs)
		if err != nil {
			ix.cfg.Logger.Warn("search: rerank failed, keeping initial ranking", "error", err)
		} else {
			alpha := ix.cfg.RerankWeight
			for i := range initial {
				initial[i].score = alpha*rescores[i] + (1-alpha)*initial[i].score
			}
			sort.SliceStable(initial, func(a, b int) bool { return initial[a].score > initial[b].score })
			if len(initial) > ix.cfg.TopK {
				initial = initial[:ix.cfg.TopK]
			}
		}
	}

	results := make([]Result, len(initial))
	for i, s := range initial {
		results[i] = Result{Element: ix.elements[s.idx], Score: s.score}
	}
	return results, nil
}
