// Package summarizer condenses message threads into narrative summaries
// and formats issue descriptions from them.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ghosthub/ghosthub/internal/fault"
	"github.com/ghosthub/ghosthub/internal/genai"
	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/ghosthub/ghosthub/internal/store"
)

// Length selects how condensed the summary should be.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Format selects the summary output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPlain    Format = "plain"
)

// Options tune a summarization call. Zero values mean medium/markdown.
type Options struct {
	Length Length
	Format Format
}

func (o *Options) applyDefaults() {
	if o.Length == "" {
		o.Length = LengthMedium
	}
	if o.Format == "" {
		o.Format = FormatMarkdown
	}
}

var lengthHints = map[Length]string{
	LengthShort:  "at most two sentences",
	LengthMedium: "one concise paragraph",
	LengthLong:   "two to three detailed paragraphs",
}

// Summarizer summarizes threads via the generation capability and stores
// the results.
type Summarizer struct {
	capability genai.Capability
	store      *store.Store
}

// Opts holds parameters for creating a Summarizer.
type Opts struct {
	Capability genai.Capability
	Store      *store.Store
}

// New creates a Summarizer.
func New(opts Opts) (*Summarizer, error) {
	if opts.Capability == nil {
		return nil, fmt.Errorf("summarizer: capability is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("summarizer: store is required")
	}
	return &Summarizer{capability: opts.Capability, store: opts.Store}, nil
}

// Available probes whether summarization is usable.
func (s *Summarizer) Available(ctx context.Context) bool {
	return s.capability.CheckAvailability(ctx)
}

// FormatThread renders messages into one ordered text block: author,
// optional timestamp, text, blank-line separated, in input order. Order is
// significant and preserved.
func FormatThread(msgs []models.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Author)
		if !m.Timestamp.IsZero() {
			b.WriteString(" (")
			b.WriteString(m.Timestamp.UTC().Format("2006-01-02 15:04"))
			b.WriteString(")")
		}
		b.WriteString(": ")
		b.WriteString(m.Text)
	}
	return b.String()
}

// SummarizeThread summarizes a thread of at least one message, persists
// the Summary record, and returns it with its assigned id.
func (s *Summarizer) SummarizeThread(ctx context.Context, thread models.Thread, opts Options) (*models.Summary, error) {
	if len(thread.Messages) == 0 {
		return nil, fmt.Errorf("summarizer: thread %q has no messages: %w", thread.ThreadID, fault.ErrInvalidInput)
	}
	if !s.capability.CheckAvailability(ctx) {
		return nil, fmt.Errorf("summarizer: %w", fault.ErrCapabilityUnavailable)
	}
	opts.applyDefaults()

	prompt := buildPrompt(FormatThread(thread.Messages), opts)
	text, err := s.capability.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("summarizer: summarize thread %q: %w", thread.ThreadID, err)
	}
	text = strings.TrimSpace(text)

	rec := &models.Summary{
		ThreadID:      thread.ThreadID,
		Platform:      thread.Platform,
		Summary:       text,
		SummaryLength: len(text),
	}
	if err := rec.SetMessages(models.Snapshot(thread.Messages)); err != nil {
		return nil, fmt.Errorf("summarizer: snapshot messages: %w", err)
	}
	if _, err := s.store.InsertSummary(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SummarizeStreaming summarizes raw text, delivering partial chunks to
// onChunk as they arrive. The final invocation carries the complete text;
// when the capability does not stream, onChunk fires exactly once with the
// full result. Nothing is persisted.
func (s *Summarizer) SummarizeStreaming(ctx context.Context, text string, onChunk genai.StreamFunc) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("summarizer: empty text: %w", fault.ErrInvalidInput)
	}
	if !s.capability.CheckAvailability(ctx) {
		return "", fmt.Errorf("summarizer: %w", fault.ErrCapabilityUnavailable)
	}

	opts := Options{}
	opts.applyDefaults()
	out, err := s.capability.GenerateStream(ctx, buildPrompt(text, opts), onChunk)
	if err != nil {
		return "", fmt.Errorf("summarizer: streaming: %w", err)
	}
	out = strings.TrimSpace(out)
	if onChunk != nil {
		onChunk(out)
	}
	return out, nil
}

func buildPrompt(block string, opts Options) string {
	var format string
	switch opts.Format {
	case FormatPlain:
		format = "plain text without any markup"
	default:
		format = "Markdown"
	}
	return fmt.Sprintf(`Summarize the following chat conversation for a GitHub issue.
Focus on the problem or request being discussed, concrete details (error
messages, steps, affected features), and any decisions reached. Write %s,
formatted as %s. Do not invent details.

Conversation:
%s`, lengthHints[opts.Length], format, block)
}

// timeLayout renders snapshot timestamps in issue descriptions.
const timeLayout = "2006-01-02 15:04 UTC"

// CreateIssueDescription produces the Markdown issue body from a summary
// and its classification. Deterministic given the same inputs; the section
// order (Summary, Details, Original Messages) is part of the contract.
func CreateIssueDescription(summary *models.Summary, classification *models.Classification) string {
	var b strings.Builder

	b.WriteString("## Summary\n\n")
	b.WriteString(summary.Summary)
	b.WriteString("\n\n## Details\n\n")
	b.WriteString(fmt.Sprintf("- **Type**: %s\n", classification.Category))
	b.WriteString(fmt.Sprintf("- **Platform**: %s\n", summary.Platform))
	b.WriteString(fmt.Sprintf("- **Messages**: %d\n", summary.MessageCount))
	b.WriteString("\n## Original Messages\n")

	msgs, err := summary.Messages()
	if err != nil {
		// A corrupt snapshot column degrades to an empty section rather
		// than failing draft creation.
		msgs = nil
	}
	for _, m := range msgs {
		b.WriteString("\n**")
		b.WriteString(m.Author)
		b.WriteString("**")
		if m.Timestamp > 0 {
			b.WriteString(" (")
			b.WriteString(time.UnixMilli(m.Timestamp).UTC().Format(timeLayout))
			b.WriteString(")")
		}
		b.WriteString(":\n")
		for _, line := range strings.Split(m.Text, "\n") {
			b.WriteString("> ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
