package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pagefuse/pagefuse/element"
)

// httpClient talks to an image-analysis service exposing the combined
// caption + read endpoint (Azure AI Vision wire format).
type httpClient struct {
	endpoint string
	key      string
	version  string
	client   *http.Client
	gate     *throttle
	cfg      Config
}

func newHTTPClient(cfg Config) *httpClient {
	return &httpClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		key:      cfg.Key,
		version:  cfg.APIVersion,
		client:   &http.Client{Timeout: cfg.Timeout},
		gate:     &throttle{interval: cfg.MinInterval},
		cfg:      cfg,
	}
}

// analyzeResponse is the subset of the analysis response we consume.
type analyzeResponse struct {
	CaptionResult struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"captionResult"`
	ReadResult struct {
		Blocks []struct {
			Lines []struct {
				Text            string  `json:"text"`
				BoundingPolygon []point `json:"boundingPolygon"`
				Words           []struct {
					Text       string  `json:"text"`
					Confidence float64 `json:"confidence"`
				} `json:"words"`
			} `json:"lines"`
		} `json:"blocks"`
	} `json:"readResult"`
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (c *httpClient) AnalyzeImage(ctx context.Context, img []byte) (string, string, error) {
	resp, err := c.analyze(ctx, img, "caption,read")
	if err != nil {
		return "", "", err
	}

	var texts []string
	for _, block := range resp.ReadResult.Blocks {
		for _, line := range block.Lines {
			if line.Text != "" {
				texts = append(texts, line.Text)
			}
		}
	}
	return resp.CaptionResult.Text, strings.Join(texts, " "), nil
}

func (c *httpClient) ReadLines(ctx context.Context, img []byte) ([]element.OCRLine, error) {
	resp, err := c.analyze(ctx, img, "read")
	if err != nil {
		return nil, err
	}

	var lines []element.OCRLine
	for _, block := range resp.ReadResult.Blocks {
		for _, l := range block.Lines {
			line := element.OCRLine{
				Content: l.Text,
				Polygon: make([]float64, 0, len(l.BoundingPolygon)*2),
			}
			for _, p := range l.BoundingPolygon {
				line.Polygon = append(line.Polygon, p.X, p.Y)
			}
			var sum float64
			for _, w := range l.Words {
				line.Words = append(line.Words, element.Word{Text: w.Text, Confidence: w.Confidence})
				sum += w.Confidence
			}
			if len(l.Words) > 0 {
				line.Confidence = sum / float64(len(l.Words))
			}
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (c *httpClient) analyze(ctx context.Context, img []byte, features string) (*analyzeResponse, error) {
	if err := c.gate.wait(ctx); err != nil {
		return nil, fmt.Errorf("vision: throttled call cancelled: %w", err)
	}

	url := fmt.Sprintf("%s/computervision/imageanalysis:analyze?features=%s&api-version=%s",
		c.endpoint, features, c.version)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(img))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.key != "" {
		req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var result analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}
