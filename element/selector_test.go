package element

import (
	"strings"
	"testing"

	"github.com/pagefuse/pagefuse/geom"
)

func TestSelectorTagSpecific(t *testing.T) {
	cases := []struct {
		name string
		elem Element
		want string
	}{
		{
			"select quantity",
			Element{Tag: "select", Content: "Quantity: 1"},
			"#quantity",
		},
		{
			"select generic",
			Element{Tag: "select", Content: "Ship to"},
			`select[aria-label="Ship to"]`,
		},
		{
			"input buy now",
			Element{Tag: "input", Content: "Buy Now"},
			`input[name="submit.buy-now"]`,
		},
		{
			"button",
			Element{Tag: "button", Content: "Add to cart!"},
			`button[aria-label="Add to cart"]`,
		},
		{
			"anchor strips query params",
			Element{Tag: "a", Href: "/widget?ref=nav", Content: "Widget"},
			`a[href*="/widget"][data-content="Widget"]`,
		},
	}
	for _, tc := range cases {
		tc.elem.EnsureSelector()
		if tc.elem.Selector != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, tc.elem.Selector, tc.want)
		}
	}
}

func TestSelectorRoleBased(t *testing.T) {
	hoverReactive := Element{
		Type:       SourceClickable,
		Content:    "Expand",
		HoverState: &HoverChange{ChangeRegions: []geom.Box{geom.FromRect(0, 0, 30, 30)}},
	}
	hoverReactive.EnsureSelector()
	if hoverReactive.Selector != `[role="button"][data-content="Expand"]` {
		t.Fatalf("hover-reactive selector = %q", hoverReactive.Selector)
	}

	menu := Element{Type: SourceClickable, Content: "Main menu"}
	menu.EnsureSelector()
	if menu.Selector != `[role="menu"][data-content="Main menu"]` {
		t.Fatalf("menu selector = %q", menu.Selector)
	}

	tab := Element{Type: SourceClickable, Content: "Settings tab"}
	tab.EnsureSelector()
	if tab.Selector != `[role="tab"][data-content="Settings tab"]` {
		t.Fatalf("tab selector = %q", tab.Selector)
	}
}

func TestSelectorOCRHeuristics(t *testing.T) {
	price := Element{Type: SourceOCR, Content: "$12.99", OCRText: "$12.99"}
	price.EnsureSelector()
	if price.Selector != `[data-price="1299"]` {
		t.Fatalf("price selector = %q", price.Selector)
	}

	label := Element{Type: SourceOCR, Content: "In stock", OCRText: "In stock"}
	label.EnsureSelector()
	if label.Selector != `[aria-label="In stock"]` {
		t.Fatalf("label selector = %q", label.Selector)
	}

	long := Element{
		Type:    SourceOCR,
		Content: "This is a long descriptive block of text on the page",
		OCRText: "This is a long descriptive block of text on the page",
	}
	long.EnsureSelector()
	if !strings.HasPrefix(long.Selector, `[data-text="`) {
		t.Fatalf("long-text selector = %q", long.Selector)
	}
}

func TestSelectorPositionFallback(t *testing.T) {
	e := Element{Type: SourceUnknown, BoundingBox: geom.FromRect(12, 34, 10, 10)}
	e.EnsureSelector()
	if e.Selector != `[data-testid="unknown-12-34"]` {
		t.Fatalf("position fallback = %q", e.Selector)
	}
	// The fallback chain must always produce something.
	empty := Element{}
	empty.EnsureSelector()
	if empty.Selector == "" {
		t.Fatal("selector synthesis must never return empty")
	}
}

func TestSelectorNotOverwritten(t *testing.T) {
	e := Element{Tag: "button", Content: "X", Selector: "#supplied"}
	e.EnsureSelector()
	if e.Selector != "#supplied" {
		t.Fatalf("supplied selector must win, got %q", e.Selector)
	}
}

func TestCleanContent(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Add to cart!", "Add to cart"},
		{"  spaced   out  ", "spaced out"},
		{"keep-hyphen_and_word", "keep-hyphen_and_word"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CleanContent(tc.in); got != tc.want {
			t.Errorf("CleanContent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	in := "first line\n\n\tsecond\t line \n  third  "
	want := "first line second  line third"
	if got := NormalizeText(in); got != want {
		t.Fatalf("NormalizeText = %q, want %q", got, want)
	}
}
