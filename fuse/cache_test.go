package fuse

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/geom"
)

func TestCacheKeyStability(t *testing.T) {
	c := NewCache()

	a := &element.Element{Tag: "img", Src: "/logo.png", BoundingBox: geom.FromRect(0, 0, 64, 64)}
	b := &element.Element{Tag: "img", Src: "/logo.png", BoundingBox: geom.FromRect(0, 0, 64, 64)}
	if c.Key(a) != c.Key(b) {
		t.Fatal("identical elements must share a cache key")
	}

	moved := &element.Element{Tag: "img", Src: "/logo.png", BoundingBox: geom.FromRect(10, 0, 64, 64)}
	if c.Key(a) == c.Key(moved) {
		t.Fatal("geometry must participate in the cache key")
	}
}

func TestCacheGetPut(t *testing.T) {
	c := NewCache()
	el := &element.Element{Tag: "img", Src: "/a.png", BoundingBox: geom.FromRect(0, 0, 50, 50)}

	if _, ok := c.Get(el); ok {
		t.Fatal("empty cache must miss")
	}
	c.Put(el, Enrichment{Caption: "a logo"})
	enr, ok := c.Get(el)
	if !ok || enr.Caption != "a logo" {
		t.Fatalf("cache hit = %v, %+v", ok, enr)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestShouldAnalyzePriorities(t *testing.T) {
	c := NewCache()

	tiny := &element.Element{Tag: "img", BoundingBox: geom.FromRect(0, 0, 10, 10)}
	if c.ShouldAnalyze(tiny) {
		t.Fatal("sub-20px elements must be skipped")
	}

	script := &element.Element{Tag: "script", BoundingBox: geom.FromRect(0, 0, 100, 100)}
	if c.ShouldAnalyze(script) {
		t.Fatal("low-priority tags must be skipped")
	}

	button := &element.Element{Tag: "button", BoundingBox: geom.FromRect(0, 0, 100, 40)}
	if !c.ShouldAnalyze(button) {
		t.Fatal("interactive tags always qualify")
	}

	img := &element.Element{Tag: "img", Src: "/x.png", BoundingBox: geom.FromRect(0, 0, 100, 100)}
	if !c.ShouldAnalyze(img) {
		t.Fatal("uncached image should qualify")
	}
	c.Put(img, Enrichment{Caption: "cached caption", DetectedText: "cached text"})

	again := &element.Element{Tag: "img", Src: "/x.png", BoundingBox: geom.FromRect(0, 0, 100, 100)}
	if c.ShouldAnalyze(again) {
		t.Fatal("cached element must be served from the cache")
	}
	if again.ImageCaption != "cached caption" || again.Content != "cached text" {
		t.Fatalf("cache hit must apply the enrichment, got %+v", again)
	}
}

func TestApplyEnrichmentNeverOverwrites(t *testing.T) {
	el := &element.Element{Content: "existing", ImageCaption: "kept"}
	applyEnrichment(el, Enrichment{Caption: "new caption", DetectedText: "new text"})
	if el.Content != "existing" || el.ImageCaption != "kept" {
		t.Fatalf("enrichment overwrote populated fields: %+v", el)
	}
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeAnalyzer) AnalyzeImage(_ context.Context, _ []byte) (string, string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", "", f.err
	}
	return "a product photo", "Widget 3000", nil
}

func TestEnrichFillsEmptyElements(t *testing.T) {
	engine := NewEngine(Config{EnrichmentWorkers: 2})
	analyzer := &fakeAnalyzer{}
	crops := func(*element.Element) ([]byte, bool) { return []byte{0x89}, true }

	elements := []*element.Element{
		{Tag: "img", Src: "/a.png", BoundingBox: geom.FromRect(0, 0, 100, 100)},
		{Tag: "div", Content: "already has plenty of text", BoundingBox: geom.FromRect(0, 0, 100, 100)},
	}

	engine.Enrich(context.Background(), elements, analyzer, crops, NewCache())

	if elements[0].ImageCaption != "a product photo" {
		t.Fatalf("image caption = %q", elements[0].ImageCaption)
	}
	if elements[0].Content != "Widget 3000" {
		t.Fatalf("detected text = %q", elements[0].Content)
	}
	if elements[1].ImageCaption != "" {
		t.Fatal("text-bearing non-visual element must be skipped")
	}
	if analyzer.calls != 1 {
		t.Fatalf("analyzer calls = %d", analyzer.calls)
	}
}

func TestEnrichToleratesAnalyzerFailure(t *testing.T) {
	engine := NewEngine(Config{EnrichmentWorkers: 2})
	analyzer := &fakeAnalyzer{err: errors.New("vision backend down")}
	crops := func(*element.Element) ([]byte, bool) { return []byte{0x89}, true }

	elements := []*element.Element{
		{Tag: "img", Src: "/a.png", BoundingBox: geom.FromRect(0, 0, 100, 100)},
		{Tag: "img", Src: "/b.png", BoundingBox: geom.FromRect(0, 120, 100, 100)},
	}

	engine.Enrich(context.Background(), elements, analyzer, crops, NewCache())

	if analyzer.calls != 2 {
		t.Fatalf("a failed element must not abort the pass, calls = %d", analyzer.calls)
	}
	if elements[0].ImageCaption != "" || elements[1].ImageCaption != "" {
		t.Fatal("failed elements must stay unenriched")
	}
}

func TestEnrichHonorsCancellation(t *testing.T) {
	engine := NewEngine(Config{EnrichmentWorkers: 1})
	analyzer := &fakeAnalyzer{}
	crops := func(*element.Element) ([]byte, bool) { return []byte{0x89}, true }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	elements := []*element.Element{
		{Tag: "img", Src: "/a.png", BoundingBox: geom.FromRect(0, 0, 100, 100)},
	}
	// Must return promptly instead of blocking on the jobs channel.
	engine.Enrich(ctx, elements, analyzer, crops, NewCache())
}
