package fuse

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/pagefuse/pagefuse/element"
)

// Enrichment is the cached result of per-element vision analysis.
type Enrichment struct {
	Caption      string
	DetectedText string
}

// Cache remembers enrichment results across elements of a run, keyed by a
// content hash, so previously-seen low-priority elements skip re-analysis.
// It is explicit per-session state, safe for concurrent workers.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Enrichment
}

// NewCache creates an empty enrichment cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Enrichment)}
}

// Key derives the cache key from the element's identity-bearing properties.
func (c *Cache) Key(el *element.Element) string {
	b := el.BoundingBox
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%g,%g,%g,%g|%s|%s",
		el.Tag, el.Content, b.Left, b.Top, b.Width, b.Height, el.Href, el.Src))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached enrichment for an element, if any.
func (c *Cache) Get(el *element.Element) (Enrichment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	enr, ok := c.entries[c.Key(el)]
	return enr, ok
}

// Put stores an enrichment result.
func (c *Cache) Put(el *element.Element, enr Enrichment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.Key(el)] = enr
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

var (
	lowPriorityTags  = map[string]bool{"script": true, "style": true, "meta": true, "link": true, "noscript": true}
	highPriorityTags = map[string]bool{"button": true, "a": true, "input": true, "select": true, "textarea": true}
)

// ShouldAnalyze applies the priority rules deciding whether an element is
// worth an external analysis call. Tiny elements and low-priority tags are
// skipped; interactive tags always qualify; anything already cached is
// served from the cache instead.
func (c *Cache) ShouldAnalyze(el *element.Element) bool {
	if el.BoundingBox.Width < 20 || el.BoundingBox.Height < 20 {
		return false
	}
	if lowPriorityTags[el.Tag] {
		return false
	}
	if highPriorityTags[el.Tag] {
		return true
	}
	if enr, ok := c.Get(el); ok {
		applyEnrichment(el, enr)
		return false
	}
	return true
}

func applyEnrichment(el *element.Element, enr Enrichment) {
	if enr.Caption != "" && el.ImageCaption == "" {
		el.ImageCaption = enr.Caption
	}
	if enr.DetectedText != "" && el.Content == "" {
		el.Content = enr.DetectedText
	}
}
