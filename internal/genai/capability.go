// Package genai provides the injected text/image generation capability
// used by the classifier, summarizer, and vision analyzer.
//
// The capability is allowed to be entirely absent: callers must probe
// CheckAvailability first and degrade their features when it reports
// false. This is a supported mode, not an error path.
package genai

import "context"

// StreamFunc receives partial output chunks during a streaming generation.
type StreamFunc func(chunk string)

// Capability is the generation dependency consumed by the pipeline.
// Implementations hold a single underlying model session: no two calls may
// be in flight concurrently, and Close must be invoked on shutdown to
// release the session.
type Capability interface {
	// CheckAvailability probes whether the capability is usable. Cheap to
	// call repeatedly; the result may be cached.
	CheckAvailability(ctx context.Context) bool

	// Generate submits a text instruction and returns the model's text
	// output.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateVision submits a text instruction with one attached image.
	GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)

	// GenerateStream submits a text instruction, delivering partial chunks
	// to fn as they arrive, and returns the complete text. When the
	// underlying model does not stream, fn fires exactly once with the
	// full result.
	GenerateStream(ctx context.Context, prompt string, fn StreamFunc) (string, error)

	// Close releases the underlying model session. Calls after Close fail
	// with fault.ErrCapabilityUnavailable.
	Close() error
}
