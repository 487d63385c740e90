// Package vision extracts error messages, visible text, and context from
// images attached to chat messages.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ghosthub/ghosthub/internal/fault"
	"github.com/ghosthub/ghosthub/internal/genai"
	"github.com/ghosthub/ghosthub/internal/models"
)

// maxImageBytes caps fetched image size.
const maxImageBytes = 8 << 20

// extractPrompt requests the three-section structured response that
// ParseResponse matches against.
const extractPrompt = `Analyze this screenshot from a developer chat.
Respond using exactly these three sections, each starting on its own line:

ERROR: any visible error messages or stack traces, one per line, or "none"
TEXT: the visible text in the image
CONTEXT: one or two sentences on what the image shows and why it matters`

// Result is the outcome of analyzing one image. Err is set (and the other
// fields zero) when the capability was unavailable or the image could not
// be processed in a batch.
type Result struct {
	Text        string
	Context     string
	Errors      []string
	RawResponse string
	Err         string
}

// Analyzer analyzes images via the generation capability's vision mode.
type Analyzer struct {
	capability genai.Capability
	httpClient *http.Client
}

// Opts holds parameters for creating an Analyzer.
type Opts struct {
	Capability genai.Capability
	HTTPClient *http.Client // defaults to a 30s-timeout client
}

// New creates an Analyzer.
func New(opts Opts) (*Analyzer, error) {
	if opts.Capability == nil {
		return nil, fmt.Errorf("vision: capability is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Analyzer{capability: opts.Capability, httpClient: hc}, nil
}

// ProcessImage analyzes one image. An unavailable capability yields a
// zero-value Result with Err set and a nil error — the pipeline degrades
// instead of failing. Normalization and mid-call capability failures return
// an error for the caller to decide on.
func (a *Analyzer) ProcessImage(ctx context.Context, img models.ImageRef) (Result, error) {
	if !a.capability.CheckAvailability(ctx) {
		return Result{Err: "image analysis unavailable"}, nil
	}

	data, mimeType, err := a.normalize(ctx, img)
	if err != nil {
		return Result{}, err
	}

	raw, err := a.capability.GenerateVision(ctx, extractPrompt, data, mimeType)
	if err != nil {
		return Result{}, fmt.Errorf("vision: process image: %w", err)
	}

	res := ParseResponse(raw)
	return res, nil
}

// ProcessImages analyzes images sequentially, preserving order and
// isolating per-image failures: the batch always returns one result per
// input, with failed entries carrying Err.
func (a *Analyzer) ProcessImages(ctx context.Context, imgs []models.ImageRef) []Result {
	results := make([]Result, 0, len(imgs))
	for _, img := range imgs {
		res, err := a.ProcessImage(ctx, img)
		if err != nil {
			results = append(results, Result{Err: err.Error()})
			continue
		}
		results = append(results, res)
	}
	return results
}

// normalize converts any accepted image source (raw bytes, data URL, http
// URL) into a single encoded form: bytes plus mime type.
func (a *Analyzer) normalize(ctx context.Context, img models.ImageRef) ([]byte, string, error) {
	if len(img.Data) > 0 {
		return img.Data, http.DetectContentType(img.Data), nil
	}
	src := strings.TrimSpace(img.Source)
	switch {
	case src == "":
		return nil, "", fmt.Errorf("vision: image has no source: %w", fault.ErrInvalidInput)
	case strings.HasPrefix(src, "data:"):
		return decodeDataURL(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return a.fetch(ctx, src)
	default:
		return nil, "", fmt.Errorf("vision: unsupported image source %q: %w", truncate(src, 40), fault.ErrInvalidInput)
	}
}

// decodeDataURL parses a base64 data URL into bytes and mime type.
func decodeDataURL(src string) ([]byte, string, error) {
	rest := strings.TrimPrefix(src, "data:")
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("vision: malformed data URL: %w", fault.ErrInvalidInput)
	}
	mimeType := "application/octet-stream"
	if i := strings.Index(meta, ";"); i >= 0 {
		if meta[:i] != "" {
			mimeType = meta[:i]
		}
		if !strings.Contains(meta, "base64") {
			return nil, "", fmt.Errorf("vision: data URL is not base64: %w", fault.ErrInvalidInput)
		}
	} else if meta != "" {
		return nil, "", fmt.Errorf("vision: data URL is not base64: %w", fault.ErrInvalidInput)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("vision: decode data URL: %w", fault.ErrInvalidInput)
	}
	return data, mimeType, nil
}

func (a *Analyzer) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("vision: build request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("vision: fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("vision: fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("vision: read image body: %w", err)
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
