package element

import "github.com/pagefuse/pagefuse/geom"

// RGB is a dominant color sample from an element crop.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Size is a parsed CSS width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// HoverChange records the visual and style deltas observed between an
// element's resting and hovered states. ChangeRegions is always set; every
// other field is optional. A nil pointer means "not measured", not
// "no change".
type HoverChange struct {
	ChangeRegions []geom.Box `json:"change_regions"`
	ColorBefore   *RGB       `json:"color_before,omitempty"`
	ColorAfter    *RGB       `json:"color_after,omitempty"`
	SizeBefore    *Size      `json:"size_before,omitempty"`
	SizeAfter     *Size      `json:"size_after,omitempty"`
	OpacityBefore *float64   `json:"opacity_before,omitempty"`
	OpacityAfter  *float64   `json:"opacity_after,omitempty"`
	CursorStyle   string     `json:"cursor_style,omitempty"`
	TextBefore    string     `json:"text_before,omitempty"`
	TextAfter     string     `json:"text_after,omitempty"`
}

// RevealsPointer reports whether the hover state shows a pointer cursor,
// the usual signal that the element is interactive.
func (h *HoverChange) RevealsPointer() bool {
	return h != nil && h.CursorStyle == "pointer"
}
