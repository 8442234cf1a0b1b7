package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
)

// TextReader adapts an Analyzer to raster-crop text reads, as needed by the
// visual-change detector.
type TextReader struct {
	analyzer Analyzer
}

// NewTextReader wraps an analyzer. A nil analyzer yields a reader that
// reports no text.
func NewTextReader(analyzer Analyzer) *TextReader {
	return &TextReader{analyzer: analyzer}
}

// ReadText OCRs the visible text out of an in-memory raster.
func (r *TextReader) ReadText(ctx context.Context, img image.Image) (string, error) {
	if r.analyzer == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("vision: encode crop: %w", err)
	}
	_, text, err := r.analyzer.AnalyzeImage(ctx, buf.Bytes())
	return text, err
}
