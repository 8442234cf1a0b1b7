package browse

import (
	"strings"
	"testing"

	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/fuse"
)

const staticDoc = `<html><head><title>t</title></head><body>
<h1>Welcome</h1>
<div id="intro"><p>Read the <a href="/docs">docs</a></p></div>
<script>var hidden = 1;</script>
<img src="/logo.png" alt="Logo">
<input placeholder="Search">
<div></div>
</body></html>`

func TestParseStaticBuildsTree(t *testing.T) {
	src, err := ParseStatic(strings.NewReader(staticDoc))
	if err != nil {
		t.Fatal(err)
	}
	if src.DOM == nil || src.DOM.Type != "root" {
		t.Fatalf("tree = %+v", src.DOM)
	}
	// script and the empty div are dropped.
	if len(src.DOM.Children) != 4 {
		t.Fatalf("root children = %d, want 4", len(src.DOM.Children))
	}

	h1 := src.DOM.Children[0].Properties
	if h1.TagName != "h1" || h1.Text != "Welcome" || h1.Selector != "body > h1" {
		t.Fatalf("h1 = %+v", h1)
	}
	if h1.Position == nil || h1.Position.Y != 0 {
		t.Fatalf("h1 position = %+v", h1.Position)
	}

	intro := src.DOM.Children[1]
	if intro.Properties.Selector != "#intro" {
		t.Fatalf("intro selector = %q", intro.Properties.Selector)
	}
	if intro.Properties.Position != nil {
		t.Fatal("text-less container must not get synthetic geometry")
	}
	if len(intro.Children) != 1 {
		t.Fatalf("intro children = %d", len(intro.Children))
	}
	p := intro.Children[0]
	if p.Properties.Text != "Read the" || p.Properties.Selector != "#intro > p" {
		t.Fatalf("p = %+v", p.Properties)
	}
	a := p.Children[0].Properties
	if a.Text != "docs" || a.Href != "/docs" || a.Selector != "#intro > p > a" {
		t.Fatalf("a = %+v", a)
	}

	img := src.DOM.Children[2].Properties
	if img.TagName != "img" || img.Text != "Logo" || img.Src != "/logo.png" {
		t.Fatalf("img = %+v", img)
	}

	input := src.DOM.Children[3].Properties
	if input.Text != "Search" {
		t.Fatalf("input = %+v", input)
	}
}

func collectTops(children []element.DOMNode, out *[]float64) {
	for i := range children {
		if p := children[i].Properties; p != nil && p.Position != nil {
			*out = append(*out, p.Position.Y)
		}
		collectTops(children[i].Children, out)
	}
}

func TestParseStaticStacksRowsVertically(t *testing.T) {
	src, err := ParseStatic(strings.NewReader(staticDoc))
	if err != nil {
		t.Fatal(err)
	}

	var tops []float64
	collectTops(src.DOM.Children, &tops)
	if len(tops) < 4 {
		t.Fatalf("positioned nodes = %d, want at least 4", len(tops))
	}
	prev := -1.0
	for _, y := range tops {
		if y <= prev {
			t.Fatalf("tops not strictly increasing: %v", tops)
		}
		prev = y
	}
}

func TestParseStaticClickables(t *testing.T) {
	src, err := ParseStatic(strings.NewReader(staticDoc))
	if err != nil {
		t.Fatal(err)
	}
	if len(src.Clickables) != 2 {
		t.Fatalf("clickables = %+v", src.Clickables)
	}
	link := src.Clickables[0]
	if link.Tag != "a" || link.Text != "docs" || link.Href != "/docs" {
		t.Fatalf("link = %+v", link)
	}
	if link.Rect.Height <= 0 || link.Rect.Width <= 0 {
		t.Fatalf("link rect = %+v", link.Rect)
	}
	if src.Clickables[1].Tag != "input" || src.Clickables[1].Text != "Search" {
		t.Fatalf("input clickable = %+v", src.Clickables[1])
	}
}

func TestParseStaticNoBody(t *testing.T) {
	src, err := ParseStatic(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if src.DOM == nil {
		t.Fatal("expected empty tree, got nil")
	}
}

func TestParseStaticFeedsFusion(t *testing.T) {
	src, err := ParseStatic(strings.NewReader(staticDoc))
	if err != nil {
		t.Fatal(err)
	}
	elements := fuse.NewEngine(fuse.Config{}).Fuse(src)
	if len(elements) == 0 {
		t.Fatal("fusion produced no elements")
	}

	found := false
	for _, el := range elements {
		if el.Href == "/docs" {
			found = true
		}
	}
	if !found {
		t.Fatal("anchor element lost in fusion")
	}
}
