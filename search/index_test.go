package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/geom"
)

// wordEmbedder is a deterministic bag-of-words embedder over a tiny
// vocabulary, good enough to make ranking assertions reproducible.
type wordEmbedder struct {
	vocab      []string
	batchCalls int
}

func newWordEmbedder() *wordEmbedder {
	return &wordEmbedder{vocab: []string{"buy", "now", "contact", "home", "widget"}}
}

func (e *wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(e.vocab)+1)
	lower := strings.ToLower(text)
	for i, w := range e.vocab {
		vec[i] = float32(strings.Count(lower, w))
	}
	vec[len(e.vocab)] = 0.1 // keep zero-word texts embeddable
	return vec, nil
}

func (e *wordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batchCalls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := e.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}

func (e *wordEmbedder) Dimension() int { return len(e.vocab) + 1 }
func (e *wordEmbedder) Model() string  { return "word-test" }

func clickableAt(content, tag string, top float64) *element.Element {
	return &element.Element{
		BoundingBox: geom.FromRect(0, top, 100, 30),
		Type:        element.SourceClickable,
		Tag:         tag,
		Content:     content,
		Confidence:  1.0,
	}
}

func buildIndex(t *testing.T, ix *Index, elements []*element.Element) {
	t.Helper()
	if err := ix.Build(context.Background(), elements); err != nil {
		t.Fatal(err)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	emb := newWordEmbedder()
	ix := NewIndex(Config{}, emb, nil)
	elements := []*element.Element{clickableAt("Buy Now", "button", 0)}

	buildIndex(t, ix, elements)
	buildIndex(t, ix, elements)
	if emb.batchCalls != 1 {
		t.Fatalf("repeated Build must be a no-op, embedded %d times", emb.batchCalls)
	}

	ix.Invalidate()
	if ix.Indexed() {
		t.Fatal("Invalidate must drop the index")
	}
	buildIndex(t, ix, elements)
	if emb.batchCalls != 2 {
		t.Fatalf("Build after Invalidate must re-embed, got %d calls", emb.batchCalls)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	ix := NewIndex(Config{}, newWordEmbedder(), nil)
	buildIndex(t, ix, []*element.Element{clickableAt("Home", "a", 0)})

	if _, err := ix.Search(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestSearchRequiresIndex(t *testing.T) {
	ix := NewIndex(Config{}, newWordEmbedder(), nil)
	if _, err := ix.Search(context.Background(), "anything"); !errors.Is(err, ErrNotIndexed) {
		t.Fatalf("err = %v, want ErrNotIndexed", err)
	}
}

func TestSearchRanksExactTextFirst(t *testing.T) {
	ix := NewIndex(Config{}, newWordEmbedder(), nil)
	buildIndex(t, ix, []*element.Element{
		clickableAt("Contact us", "a", 0),
		clickableAt("Buy Now", "button", 40),
		clickableAt("Home", "a", 80),
	})

	results, err := ix.Search(context.Background(), "buy now")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].Element.Content != "Buy Now" {
		t.Fatalf("top result = %q", results[0].Element.Content)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatal("results must be sorted by score descending")
		}
	}
}

type fixedReranker struct {
	scores map[string]float64
	err    error
}

func (f fixedReranker) Rerank(_ context.Context, _ string, docs []string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(docs))
	for i, d := range docs {
		for key, score := range f.scores {
			if strings.Contains(d, key) {
				out[i] = score
			}
		}
	}
	return out, nil
}

func (fixedReranker) Model() string { return "fixed" }

func TestSearchRerankBlending(t *testing.T) {
	// The cross-encoder strongly prefers "Contact us"; with weight 0.7 over
	// near-equal initial scores it must win the blend.
	rr := fixedReranker{scores: map[string]float64{"Contact us": 100}}
	ix := NewIndex(Config{TopK: 2}, newWordEmbedder(), rr)
	buildIndex(t, ix, []*element.Element{
		clickableAt("Contact us", "a", 0),
		clickableAt("Contact sales", "a", 40),
		clickableAt("Home", "a", 80),
	})

	results, err := ix.Search(context.Background(), "contact")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("rerank stage must cap at TopK, got %d", len(results))
	}
	if results[0].Element.Content != "Contact us" {
		t.Fatalf("top result = %q", results[0].Element.Content)
	}
}

func TestSearchRerankFailureKeepsInitialRanking(t *testing.T) {
	rr := fixedReranker{err: errors.New("reranker down")}
	ix := NewIndex(Config{}, newWordEmbedder(), rr)
	buildIndex(t, ix, []*element.Element{
		clickableAt("Buy Now", "button", 0),
		clickableAt("Home", "a", 40),
	})

	results, err := ix.Search(context.Background(), "buy now")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].Element.Content != "Buy Now" {
		t.Fatalf("rerank failure must fall back to initial ranking, got %+v", results)
	}
}

func TestRestoreSkipsEmbedder(t *testing.T) {
	emb := newWordEmbedder()
	ix := NewIndex(Config{}, emb, nil)
	elements := []*element.Element{
		clickableAt("Buy Now", "button", 0),
		clickableAt("Home", "a", 40),
	}

	seed := NewIndex(Config{}, emb, nil)
	buildIndex(t, seed, elements)
	vectors := seed.Vectors()
	emb.batchCalls = 0

	if err := ix.Restore(elements, vectors); err != nil {
		t.Fatal(err)
	}
	if emb.batchCalls != 0 {
		t.Fatalf("Restore must not embed, got %d batch calls", emb.batchCalls)
	}
	if !ix.Indexed() {
		t.Fatal("restored index must report indexed")
	}

	results, err := ix.Search(context.Background(), "buy now")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].Element.Content != "Buy Now" {
		t.Fatalf("results = %+v", results)
	}
}

func TestRestoreRejectsMismatchedVectors(t *testing.T) {
	ix := NewIndex(Config{}, newWordEmbedder(), nil)
	err := ix.Restore([]*element.Element{clickableAt("Home", "a", 0)}, nil)
	if err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestEmbeddingText(t *testing.T) {
	hover := &element.HoverChange{TextAfter: "Menu opens", CursorStyle: "pointer"}
	el := &element.Element{
		Type:         element.SourceClickable,
		Tag:          "a",
		Content:      "Shop",
		Href:         "/shop-all_items",
		ImageCaption: "a storefront",
		HoverState:   hover,
		Visibility:   &element.Visibility{Display: "block"},
	}

	text := EmbeddingText(el)
	for _, want := range []string{
		"Shop",
		"image showing a storefront",
		"reveals Menu opens on hover",
		"link",
		"clickable link Shop",
		"links to /shop all items",
		"interactive clickable element",
		"visible element on page",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("embedding text missing %q: %q", want, text)
		}
	}

	hidden := &element.Element{Content: "ghost", Visibility: &element.Visibility{Display: "none"}}
	if strings.Contains(EmbeddingText(hidden), "visible element") {
		t.Fatal("hidden elements must not claim visibility")
	}

	button := &element.Element{Type: element.SourceClickable, Tag: "button", Content: "Buy Now"}
	if text := EmbeddingText(button); !strings.Contains(text, "clickable button Buy Now") {
		t.Fatalf("button phrasing missing: %q", text)
	}
}
