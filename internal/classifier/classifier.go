// Package classifier turns one chat message into a developer-intent
// category with a confidence level, using the injected generation
// capability, and persists the result.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/ghosthub/ghosthub/internal/fault"
	"github.com/ghosthub/ghosthub/internal/genai"
	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/ghosthub/ghosthub/internal/store"
)

// classifyPrompt is the fixed instruction sent for every classification.
// The constrained output format is what ParseResponse matches against.
const classifyPrompt = `You are a developer-intent classifier for chat messages.
Classify the message below into exactly one category:
- bug: a defect report, error, crash, or something not working
- feature: a feature request, enhancement, or improvement suggestion
- pr_mention: discussion of a pull request, merge, or code review
- other: anything else (small talk, questions, status updates)

Respond with exactly one line in this format and nothing else:
category: <bug|feature|pr_mention|other>, confidence: <high|medium|low>

Message:
%s`

// Classifier classifies messages via the generation capability and stores
// the results.
type Classifier struct {
	capability genai.Capability
	store      *store.Store
}

// Opts holds parameters for creating a Classifier.
type Opts struct {
	Capability genai.Capability
	Store      *store.Store
}

// New creates a Classifier.
func New(opts Opts) (*Classifier, error) {
	if opts.Capability == nil {
		return nil, fmt.Errorf("classifier: capability is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("classifier: store is required")
	}
	return &Classifier{capability: opts.Capability, store: opts.Store}, nil
}

// Available probes whether classification is usable. Callers check this
// first and degrade instead of calling Classify speculatively.
func (c *Classifier) Available(ctx context.Context) bool {
	return c.capability.CheckAvailability(ctx)
}

// Classify classifies one message, persists the result, and returns it
// with its assigned id. Malformed model output never fails a call — it
// downgrades to other/low. Only capability unavailability, capability
// failure, or a storage failure surface as errors.
func (c *Classifier) Classify(ctx context.Context, msg models.Message) (*models.Classification, error) {
	if strings.TrimSpace(msg.Text) == "" {
		return nil, fmt.Errorf("classifier: empty message text: %w", fault.ErrInvalidInput)
	}
	if !c.capability.CheckAvailability(ctx) {
		return nil, fmt.Errorf("classifier: %w", fault.ErrCapabilityUnavailable)
	}

	raw, err := c.capability.Generate(ctx, fmt.Sprintf(classifyPrompt, msg.Text))
	if err != nil {
		return nil, fmt.Errorf("classifier: classify: %w", err)
	}

	category, confidence := ParseResponse(raw)
	rec := &models.Classification{
		MessageText: msg.Text,
		Platform:    msg.Platform,
		Author:      msg.Author,
		Category:    category,
		Confidence:  confidence,
		RawResponse: raw,
	}
	if !msg.Timestamp.IsZero() {
		rec.MessageTimestamp = msg.Timestamp.UnixMilli()
	}

	if _, err := c.store.InsertClassification(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// BatchResult is one outcome of a ClassifyAll call. When Err is set,
// Classification carries the error marker category and was not persisted.
type BatchResult struct {
	Classification *models.Classification
	Err            error
}

// ClassifyAll classifies messages sequentially, in input order, isolating
// per-item failures. The batch always completes with one outcome per input.
func (c *Classifier) ClassifyAll(ctx context.Context, msgs []models.Message) []BatchResult {
	results := make([]BatchResult, 0, len(msgs))
	for _, msg := range msgs {
		rec, err := c.Classify(ctx, msg)
		if err != nil {
			results = append(results, BatchResult{
				Classification: &models.Classification{
					MessageText: msg.Text,
					Platform:    msg.Platform,
					Author:      msg.Author,
					Category:    models.CategoryError,
				},
				Err: err,
			})
			continue
		}
		results = append(results, BatchResult{Classification: rec})
	}
	return results
}
