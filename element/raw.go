package element

// Raw source records, one shape per producer. The DOM walk and clickable scan
// report in viewport logical coordinates; OCR reports in screenshot pixel
// coordinates and carries its own confidence.

// Position is an element's viewport position and dimensions as reported by
// getBoundingClientRect.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Visibility holds the computed style properties that decide whether an
// element renders. Values are raw CSS strings.
type Visibility struct {
	Display    string `json:"display"`
	Visibility string `json:"visibility"`
	Opacity    string `json:"opacity"`
}

// Hidden reports whether the visibility record describes a non-rendering
// element.
func (v Visibility) Hidden() bool {
	return v.Display == "none" || v.Visibility == "hidden" || v.Opacity == "0"
}

// DOMProperties are the per-node properties captured by the DOM walk script.
type DOMProperties struct {
	TagName    string     `json:"tagName"`
	Text       string     `json:"text"`
	Href       string     `json:"href,omitempty"`
	Src        string     `json:"src,omitempty"`
	Selector   string     `json:"selector"`
	Position   *Position  `json:"position,omitempty"`
	Visibility Visibility `json:"visibility"`
}

// DOMNode is a node in the captured DOM tree.
type DOMNode struct {
	Properties *DOMProperties `json:"properties,omitempty"`
	Children   []DOMNode      `json:"children,omitempty"`
}

// DOMTree is the root of a captured DOM tree.
type DOMTree struct {
	Type     string    `json:"type"`
	Children []DOMNode `json:"children"`
}

// Rect is a clickable candidate's viewport rectangle.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clickable is a raw clickable-scan candidate.
type Clickable struct {
	Tag          string       `json:"tag"`
	Text         string       `json:"text"`
	Rect         Rect         `json:"rect"`
	Href         string       `json:"href,omitempty"`
	Src          string       `json:"src,omitempty"`
	Selector     string       `json:"selector,omitempty"`
	HoverState   *HoverChange `json:"hover_state,omitempty"`
	ImageCaption string       `json:"image_caption,omitempty"`
	Screenshots  []string     `json:"screenshots,omitempty"`
}

// Word is a single OCR word with its recognition confidence.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// OCRLine is a raw line of OCR output. Polygon is a flat x1,y1,x2,y2,...
// vertex list in screenshot pixel space, at least 4 points.
type OCRLine struct {
	Content    string    `json:"content"`
	Confidence float64   `json:"confidence"`
	Polygon    []float64 `json:"polygon"`
	Words      []Word    `json:"words,omitempty"`
}
