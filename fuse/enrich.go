package fuse

import (
	"context"
	"sync"

	"github.com/pagefuse/pagefuse/element"
)

// ImageAnalyzer is the external vision collaborator used for per-element
// enrichment: captioning and text detection on an element's screenshot crop.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, img []byte) (caption, detectedText string, err error)
}

// CropFunc supplies the screenshot crop for an element. Returning false
// means no crop is available and the element is left alone.
type CropFunc func(*element.Element) ([]byte, bool)

// Enrich runs vision analysis over the elements with a bounded worker pool.
// Each worker writes only to its own element's record, so no locking is
// needed at element granularity. A failed call degrades that element (it
// stays unenriched) and never aborts the pass; context cancellation simply
// discards remaining work.
func (e *Engine) Enrich(ctx context.Context, elements []*element.Element, analyzer ImageAnalyzer, crops CropFunc, cache *Cache) {
	if analyzer == nil || crops == nil {
		return
	}
	if cache == nil {
		cache = NewCache()
	}

	jobs := make(chan *element.Element)
	var wg sync.WaitGroup

	for range e.cfg.EnrichmentWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for el := range jobs {
				e.enrichOne(ctx, el, analyzer, crops, cache)
			}
		}()
	}

feed:
	for _, el := range elements {
		if el == nil || !cache.ShouldAnalyze(el) {
			continue
		}
		// Enrichment only adds information that text-bearing elements
		// already have.
		if el.Content != "" && len(el.Content) >= 3 && !isVisualTag(el.Tag) {
			continue
		}
		select {
		case jobs <- el:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
}

func (e *Engine) enrichOne(ctx context.Context, el *element.Element, analyzer ImageAnalyzer, crops CropFunc, cache *Cache) {
	img, ok := crops(el)
	if !ok || len(img) == 0 {
		return
	}

	caption, detected, err := analyzer.AnalyzeImage(ctx, img)
	if err != nil {
		e.cfg.Logger.Warn("fuse: element enrichment failed",
			"selector", el.Selector, "tag", el.Tag, "error", err)
		return
	}

	enr := Enrichment{Caption: caption, DetectedText: detected}
	applyEnrichment(el, enr)
	cache.Put(el, enr)
}

func isVisualTag(tag string) bool {
	switch tag {
	case "img", "svg", "canvas":
		return true
	}
	return false
}
