package genai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ghosthub/ghosthub/internal/config"
	"github.com/ghosthub/ghosthub/internal/fault"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// probeTimeout bounds the availability probe.
const probeTimeout = 5 * time.Second

// Client implements Capability over a langchaingo model. A mutex makes the
// one-in-flight-call-at-a-time constraint an enforced invariant rather than
// a scheduling accident.
type Client struct {
	model       llms.Model
	visionModel string        // model name for vision calls, may equal text model
	timeout     time.Duration // per-call deadline, 0 = none

	mu        sync.Mutex // serializes all model calls
	stateMu   sync.Mutex // guards closed/probed/available
	closed    bool
	probed    bool
	available bool
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	Config config.ModelConfig
	// Model injects a prebuilt langchaingo model, bypassing provider
	// construction. For testing.
	Model llms.Model
}

// NewClient creates a Client for the configured provider.
func NewClient(opts ClientOpts) (*Client, error) {
	cfg := opts.Config
	c := &Client{
		visionModel: cfg.VisionModel,
		timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
	}

	if opts.Model != nil {
		c.model = opts.Model
		return c, nil
	}

	switch cfg.Provider {
	case "openai":
		oopts := []openai.Option{openai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			oopts = append(oopts, openai.WithBaseURL(cfg.BaseURL))
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			// langchaingo requires a token even for keyless
			// OpenAI-compatible servers.
			apiKey = "unset"
		}
		oopts = append(oopts, openai.WithToken(apiKey))
		model, err := openai.New(oopts...)
		if err != nil {
			return nil, fmt.Errorf("genai: create openai client: %w", err)
		}
		c.model = model
	case "ollama":
		model, err := ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.BaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("genai: create ollama client: %w", err)
		}
		c.model = model
	default:
		return nil, fmt.Errorf("genai: unsupported provider %q", cfg.Provider)
	}
	return c, nil
}

// CheckAvailability probes the model with a minimal generation. The first
// successful probe is cached for the life of the client.
func (c *Client) CheckAvailability(ctx context.Context) bool {
	c.stateMu.Lock()
	if c.closed {
		c.stateMu.Unlock()
		return false
	}
	if c.probed && c.available {
		c.stateMu.Unlock()
		return true
	}
	c.stateMu.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	c.mu.Lock()
	_, err := llms.GenerateFromSinglePrompt(probeCtx, c.model, "ping", llms.WithMaxTokens(1))
	c.mu.Unlock()

	c.stateMu.Lock()
	c.probed = true
	c.available = err == nil
	ok := c.available
	c.stateMu.Unlock()
	return ok
}

// Generate submits a text instruction and returns the model output.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	c.mu.Lock()
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
	c.mu.Unlock()
	if err != nil {
		return "", c.callError("generate", err)
	}
	return out, nil
}

// GenerateVision submits a text instruction with one attached image, using
// the configured vision model.
func (c *Client) GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}
	if len(image) == 0 {
		return "", fmt.Errorf("genai: vision: empty image: %w", fault.ErrInvalidInput)
	}
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	content := []llms.MessageContent{{
		Role: schema.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextPart(prompt),
			llms.BinaryPart(mimeType, image),
		},
	}}

	var callOpts []llms.CallOption
	if c.visionModel != "" {
		callOpts = append(callOpts, llms.WithModel(c.visionModel))
	}

	c.mu.Lock()
	resp, err := c.model.GenerateContent(ctx, content, callOpts...)
	c.mu.Unlock()
	if err != nil {
		return "", c.callError("vision", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("genai: vision: empty response: %w", fault.ErrCapability)
	}
	return resp.Choices[0].Content, nil
}

// GenerateStream submits a text instruction, forwarding chunks to fn, and
// returns the complete text.
func (c *Client) GenerateStream(ctx context.Context, prompt string, fn StreamFunc) (string, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	var opts []llms.CallOption
	if fn != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			fn(string(chunk))
			return nil
		}))
	}

	c.mu.Lock()
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, opts...)
	c.mu.Unlock()
	if err != nil {
		return "", c.callError("stream", err)
	}
	return out, nil
}

// Close releases the model session. Safe to call more than once.
func (c *Client) Close() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.closed = true
	c.model = nil
	return nil
}

func (c *Client) checkOpen() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.closed {
		return fmt.Errorf("genai: client closed: %w", fault.ErrCapabilityUnavailable)
	}
	return nil
}

func (c *Client) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// callError maps a model failure to the fault taxonomy. A stalled call past
// the configured deadline is a timeout; everything else is a generic
// capability error.
func (c *Client) callError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("genai: %s: %w", op, fault.ErrCapabilityTimeout)
	}
	return fmt.Errorf("genai: %s: %w: %v", op, fault.ErrCapability, err)
}
