package genai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ghosthub/ghosthub/internal/fault"
)

// Fake implements Capability for testing. Responses are matched by prompt
// substring, falling back to a default. Availability, streaming chunks, and
// per-prompt errors can all be scripted.
type Fake struct {
	mu          sync.Mutex
	available   bool
	closed      bool
	responses   map[string]string // prompt substring -> response
	errOn       map[string]error  // prompt substring -> injected error
	defaultResp string
	streams     bool // when true, streaming splits output into word chunks
	prompts     []string
	visionCalls int
}

// NewFake creates an available Fake with no scripted responses.
func NewFake() *Fake {
	return &Fake{
		available: true,
		responses: make(map[string]string),
		errOn:     make(map[string]error),
	}
}

// SetAvailable toggles the availability probe result.
func (f *Fake) SetAvailable(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = ok
}

// Respond scripts a response for prompts containing substr.
func (f *Fake) Respond(substr, response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[substr] = response
}

// RespondDefault sets the response for unmatched prompts.
func (f *Fake) RespondDefault(response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultResp = response
}

// FailOn injects an error for prompts containing substr.
func (f *Fake) FailOn(substr string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errOn[substr] = err
}

// SetStreaming makes GenerateStream deliver word-by-word chunks.
func (f *Fake) SetStreaming(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams = on
}

// Prompts returns every prompt submitted so far, in call order.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// VisionCalls returns the number of GenerateVision invocations.
func (f *Fake) VisionCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visionCalls
}

// CheckAvailability reports the scripted availability.
func (f *Fake) CheckAvailability(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available && !f.closed
}

func (f *Fake) lookup(prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if !f.available || f.closed {
		return "", fmt.Errorf("genai: fake: %w", fault.ErrCapabilityUnavailable)
	}
	for substr, err := range f.errOn {
		if strings.Contains(prompt, substr) {
			return "", fmt.Errorf("genai: fake: %w: %v", fault.ErrCapability, err)
		}
	}
	for substr, resp := range f.responses {
		if strings.Contains(prompt, substr) {
			return resp, nil
		}
	}
	return f.defaultResp, nil
}

// Generate returns the scripted response for prompt.
func (f *Fake) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookup(prompt)
}

// GenerateVision returns the scripted response for prompt, counting the call.
func (f *Fake) GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visionCalls++
	return f.lookup(prompt)
}

// GenerateStream returns the scripted response, chunking it word by word
// when streaming is enabled.
func (f *Fake) GenerateStream(ctx context.Context, prompt string, fn StreamFunc) (string, error) {
	f.mu.Lock()
	out, err := f.lookup(prompt)
	streams := f.streams
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	if fn != nil && streams {
		for _, word := range strings.SplitAfter(out, " ") {
			fn(word)
		}
	}
	return out, nil
}

// Close marks the fake closed; later calls fail as unavailable.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
