// Package analyzer produces a lightweight per-message verdict by merging
// keyword classification with image analysis. It is deliberately cheaper
// than the full classifier and is used where a fast local decision
// suffices.
package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/ghosthub/ghosthub/internal/vision"
)

// Keyword lexicons, checked in priority order: bug beats feature beats
// pr-mention.
var (
	bugRe     = regexp.MustCompile(`(?i)\b(error|bug|broken|crash|issue|not working)\b`)
	featureRe = regexp.MustCompile(`(?i)\b(feature|enhancement|should add|would be nice|request)\b`)
	prRe      = regexp.MustCompile(`(?i)\b(pr|pull request|merge)\b`)

	// "pull request" is PR evidence, not a feature request; mask it before
	// the feature lexicon runs.
	pullRequestRe = regexp.MustCompile(`(?i)\bpull request\b`)
)

// Analysis is the unified per-message verdict.
type Analysis struct {
	Text      string
	Images    []vision.Result
	HasErrors bool
	Errors    []string
	Summary   string
	Type      models.AnalysisType
}

// Analyzer merges text and image evidence for single messages.
type Analyzer struct {
	vision *vision.Analyzer
}

// Opts holds parameters for creating an Analyzer.
type Opts struct {
	Vision *vision.Analyzer
}

// New creates an Analyzer.
func New(opts Opts) (*Analyzer, error) {
	if opts.Vision == nil {
		return nil, fmt.Errorf("analyzer: vision analyzer is required")
	}
	return &Analyzer{vision: opts.Vision}, nil
}

// AnalyzeMessage analyzes one message: runs image analysis over every
// attached image, aggregates extracted errors, classifies the type from
// the combined text and error evidence, and composes the summary text.
func (a *Analyzer) AnalyzeMessage(ctx context.Context, msg models.Message) (Analysis, error) {
	analysis := Analysis{Text: msg.Text}

	if len(msg.Images) > 0 {
		analysis.Images = a.vision.ProcessImages(ctx, msg.Images)
		for _, res := range analysis.Images {
			analysis.Errors = append(analysis.Errors, res.Errors...)
		}
	}
	analysis.HasErrors = len(analysis.Errors) > 0
	analysis.Type = ClassifyKeywords(msg.Text, analysis.Errors)
	analysis.Summary = composeSummary(msg.Text, analysis.Images)
	return analysis, nil
}

// ClassifyKeywords applies the deterministic keyword-priority rule over the
// combined text and error evidence. Any extracted error forces bug.
func ClassifyKeywords(text string, errors []string) models.AnalysisType {
	if len(errors) > 0 {
		return models.AnalysisBug
	}
	masked := pullRequestRe.ReplaceAllString(text, "PULLREQ")
	switch {
	case bugRe.MatchString(text):
		return models.AnalysisBug
	case featureRe.MatchString(masked):
		return models.AnalysisFeature
	case prRe.MatchString(text):
		return models.AnalysisPRMention
	}
	return models.AnalysisGeneral
}

// composeSummary renders the message text followed by per-image sections
// in a fixed order: context, visible text, errors. The order and section
// headers are part of the contract — this text feeds the final issue body.
func composeSummary(text string, images []vision.Result) string {
	var b strings.Builder
	b.WriteString(text)
	for i, img := range images {
		n := i + 1
		if img.Err != "" {
			b.WriteString(fmt.Sprintf("\n\nImage %d: analysis unavailable (%s)", n, img.Err))
			continue
		}
		if img.Context != "" {
			b.WriteString(fmt.Sprintf("\n\nImage %d context: %s", n, img.Context))
		}
		if img.Text != "" {
			b.WriteString(fmt.Sprintf("\n\nImage %d visible text: %s", n, img.Text))
		}
		if len(img.Errors) > 0 {
			b.WriteString(fmt.Sprintf("\n\nImage %d errors: %s", n, strings.Join(img.Errors, "; ")))
		}
	}
	return b.String()
}
