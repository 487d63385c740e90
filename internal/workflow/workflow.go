// Package workflow drives the message-to-issue pipeline: classify a
// thread's lead message, gate on actionability, summarize, synthesize an
// issue draft, and manage the draft lifecycle.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/ghosthub/ghosthub/internal/analyzer"
	"github.com/ghosthub/ghosthub/internal/classifier"
	"github.com/ghosthub/ghosthub/internal/fault"
	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/ghosthub/ghosthub/internal/store"
	"github.com/ghosthub/ghosthub/internal/summarizer"
)

// Publisher is the GitHub sink consumed on draft approval. It returns the
// created issue URL.
type Publisher interface {
	Publish(ctx context.Context, draft *models.IssueDraft) (string, error)
}

// Orchestrator is the top-level pipeline.
type Orchestrator struct {
	classifier *classifier.Classifier
	summarizer *summarizer.Summarizer
	analyzer   *analyzer.Analyzer
	store      *store.Store
	publisher  Publisher
}

// Opts holds parameters for creating an Orchestrator.
type Opts struct {
	Classifier *classifier.Classifier
	Summarizer *summarizer.Summarizer
	Analyzer   *analyzer.Analyzer // optional; enables image analysis
	Store      *store.Store
	Publisher  Publisher // optional; enables ApproveAndPublish
}

// New creates an Orchestrator.
func New(opts Opts) (*Orchestrator, error) {
	if opts.Classifier == nil {
		return nil, fmt.Errorf("workflow: classifier is required")
	}
	if opts.Summarizer == nil {
		return nil, fmt.Errorf("workflow: summarizer is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("workflow: store is required")
	}
	return &Orchestrator{
		classifier: opts.Classifier,
		summarizer: opts.Summarizer,
		analyzer:   opts.Analyzer,
		store:      opts.Store,
		publisher:  opts.Publisher,
	}, nil
}

// Available probes whether the AI-backed pipeline stages are usable.
func (o *Orchestrator) Available(ctx context.Context) bool {
	return o.classifier.Available(ctx)
}

// ThreadResult is the outcome of processing one thread.
type ThreadResult struct {
	Classification *models.Classification
	Summary        *models.Summary
	Draft          *models.IssueDraft
	Actionable     bool
}

// ProcessThread runs the pipeline for one thread. Only the thread's first
// message is classified — the lead message is treated as representative of
// thread intent, a cost-control policy with a known false-negative risk
// when a thread opens with small talk. A non-actionable thread produces no
// summary and no draft; nothing new is persisted beyond the classification.
func (o *Orchestrator) ProcessThread(ctx context.Context, thread models.Thread) (*ThreadResult, error) {
	if len(thread.Messages) == 0 {
		return nil, fmt.Errorf("workflow: thread %q has no messages: %w", thread.ThreadID, fault.ErrInvalidInput)
	}

	lead := thread.Messages[0]
	if lead.Platform == "" {
		lead.Platform = thread.Platform
	}
	classification, err := o.classifier.Classify(ctx, lead)
	if err != nil {
		return nil, err
	}

	if !classification.Category.Actionable() {
		return &ThreadResult{Classification: classification, Actionable: false}, nil
	}

	summary, err := o.summarizer.SummarizeThread(ctx, thread, summarizer.Options{})
	if err != nil {
		return nil, err
	}

	description := summarizer.CreateIssueDescription(summary, classification)
	if o.analyzer != nil && len(lead.Images) > 0 {
		analysis, err := o.analyzer.AnalyzeMessage(ctx, lead)
		if err == nil {
			if section := imageSection(analysis); section != "" {
				description += section
			}
		}
	}

	draft := &models.IssueDraft{
		Title:            BuildTitle(classification.Category, summary.Summary),
		Description:      description,
		Type:             classification.Category,
		Platform:         thread.Platform,
		MessageCount:     len(thread.Messages),
		ClassificationID: classification.ID,
		SummaryID:        summary.ID,
		Status:           models.StatusDraft,
	}
	if err := draft.SetLabels(BuildLabels(classification.Category, thread.Platform)); err != nil {
		return nil, fmt.Errorf("workflow: encode labels: %w", err)
	}
	if err := draft.SetMessages(models.Snapshot(thread.Messages)); err != nil {
		return nil, fmt.Errorf("workflow: snapshot messages: %w", err)
	}
	if _, err := o.store.InsertDraft(draft); err != nil {
		return nil, err
	}

	return &ThreadResult{
		Classification: classification,
		Summary:        summary,
		Draft:          draft,
		Actionable:     true,
	}, nil
}

// imageSection renders image-analysis evidence as an extra issue section.
func imageSection(analysis analyzer.Analysis) string {
	var b strings.Builder
	for i, img := range analysis.Images {
		if img.Err != "" {
			continue
		}
		n := i + 1
		if img.Context != "" {
			b.WriteString(fmt.Sprintf("\nImage %d context: %s\n", n, img.Context))
		}
		if img.Text != "" {
			b.WriteString(fmt.Sprintf("\nImage %d visible text: %s\n", n, img.Text))
		}
		if len(img.Errors) > 0 {
			b.WriteString(fmt.Sprintf("\nImage %d errors: %s\n", n, strings.Join(img.Errors, "; ")))
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "\n## Image Analysis\n" + b.String()
}

// ThreadOutcome is one entry of a ProcessThreads batch.
type ThreadOutcome struct {
	ThreadID string
	Result   *ThreadResult
	Err      error
}

// ProcessThreads processes threads independently and sequentially. A
// failure on one thread is recorded in its outcome and never aborts the
// batch: one bad thread must not block the rest.
func (o *Orchestrator) ProcessThreads(ctx context.Context, threads []models.Thread) []ThreadOutcome {
	outcomes := make([]ThreadOutcome, 0, len(threads))
	for _, th := range threads {
		res, err := o.ProcessThread(ctx, th)
		outcomes = append(outcomes, ThreadOutcome{ThreadID: th.ThreadID, Result: res, Err: err})
	}
	return outcomes
}

// UpdateDraftStatus transitions a draft to approved or rejected. Both are
// terminal; anything else fails with fault.ErrInvalidTransition.
func (o *Orchestrator) UpdateDraftStatus(id uint, status models.DraftStatus) (*models.IssueDraft, error) {
	return o.store.UpdateDraftStatus(id, status)
}

// Reject discards a draft.
func (o *Orchestrator) Reject(id uint) (*models.IssueDraft, error) {
	return o.store.UpdateDraftStatus(id, models.StatusRejected)
}

// ApproveAndPublish publishes a draft to GitHub and marks it approved.
// The sink is called first so a publish failure leaves the draft intact
// and still pending; the sink's error is surfaced unchanged, without
// retry. Returns the updated draft and the created issue URL.
func (o *Orchestrator) ApproveAndPublish(ctx context.Context, id uint) (*models.IssueDraft, string, error) {
	if o.publisher == nil {
		return nil, "", fmt.Errorf("workflow: no publisher configured")
	}
	draft, err := o.store.GetDraft(id)
	if err != nil {
		return nil, "", err
	}
	if draft.Status != models.StatusDraft {
		return nil, "", fmt.Errorf("workflow: draft %d is %s: %w", id, draft.Status, fault.ErrInvalidTransition)
	}

	url, err := o.publisher.Publish(ctx, draft)
	if err != nil {
		return nil, "", err
	}

	updated, err := o.store.UpdateDraftStatus(id, models.StatusApproved)
	if err != nil {
		return nil, url, err
	}
	if err := o.store.UpdateDraft(id, map[string]interface{}{"issue_url": url}); err != nil {
		return nil, url, err
	}
	updated.IssueURL = url
	return updated, url, nil
}
