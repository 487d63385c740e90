package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/ghosthub/ghosthub/internal/genai"
	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/ghosthub/ghosthub/internal/vision"
)

func TestClassifyKeywords(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		errors []string
		want   models.AnalysisType
	}{
		{"error keyword", "getting an error on login", nil, models.AnalysisBug},
		{"crash keyword", "the app will crash on save", nil, models.AnalysisBug},
		{"not working", "search is not working today", nil, models.AnalysisBug},
		{"feature keyword", "feature idea: dark mode", nil, models.AnalysisFeature},
		{"would be nice", "would be nice to export as csv", nil, models.AnalysisFeature},
		{"pr keyword", "can someone review my pr", nil, models.AnalysisPRMention},
		{"pull request", "opened a pull request for this", nil, models.AnalysisPRMention},
		{"merge", "ready to merge?", nil, models.AnalysisPRMention},
		{"general", "lunch at noon?", nil, models.AnalysisGeneral},
		{"bug beats feature", "bug in the new feature", nil, models.AnalysisBug},
		{"feature beats pr", "feature request before we merge", nil, models.AnalysisFeature},
		{"errors force bug", "looks fine to me", []string{"TypeError"}, models.AnalysisBug},
		{"pr not inside word", "I approve of this approach", nil, models.AnalysisGeneral},
		{"case insensitive", "ERROR everywhere", nil, models.AnalysisBug},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ClassifyKeywords(c.text, c.errors); got != c.want {
				t.Errorf("ClassifyKeywords(%q, %v) = %s, want %s", c.text, c.errors, got, c.want)
			}
		})
	}
}

func newAnalyzer(t *testing.T, fake *genai.Fake) *Analyzer {
	t.Helper()
	v, err := vision.New(vision.Opts{Capability: fake})
	if err != nil {
		t.Fatalf("vision.New: %v", err)
	}
	a, err := New(Opts{Vision: v})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestAnalyzeMessage_NoImages(t *testing.T) {
	a := newAnalyzer(t, genai.NewFake())
	got, err := a.AnalyzeMessage(context.Background(), models.Message{Text: "would be nice to have themes"})
	if err != nil {
		t.Fatalf("AnalyzeMessage: %v", err)
	}
	if got.Type != models.AnalysisFeature {
		t.Errorf("Type = %s, want feature", got.Type)
	}
	if got.HasErrors || len(got.Errors) != 0 {
		t.Errorf("unexpected errors: %+v", got)
	}
	if got.Summary != "would be nice to have themes" {
		t.Errorf("Summary = %q", got.Summary)
	}
}

func TestAnalyzeMessage_ImageErrorsForceBug(t *testing.T) {
	fake := genai.NewFake()
	fake.RespondDefault("ERROR: TypeError at app.js:1\nTEXT: console output\nCONTEXT: a crash screenshot")
	a := newAnalyzer(t, fake)

	msg := models.Message{
		Text:   "what do you all think of this?",
		Images: []models.ImageRef{{Data: []byte{1}}},
	}
	got, err := a.AnalyzeMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("AnalyzeMessage: %v", err)
	}
	if !got.HasErrors {
		t.Error("HasErrors must aggregate image errors")
	}
	if got.Type != models.AnalysisBug {
		t.Errorf("Type = %s, want bug (error evidence)", got.Type)
	}

	// Fixed section order: message text, then context, visible text, errors.
	iText := strings.Index(got.Summary, "what do you all think")
	iCtx := strings.Index(got.Summary, "Image 1 context:")
	iVis := strings.Index(got.Summary, "Image 1 visible text:")
	iErr := strings.Index(got.Summary, "Image 1 errors:")
	if iText == -1 || iCtx == -1 || iVis == -1 || iErr == -1 {
		t.Fatalf("missing summary section:\n%s", got.Summary)
	}
	if !(iText < iCtx && iCtx < iVis && iVis < iErr) {
		t.Errorf("summary section order wrong:\n%s", got.Summary)
	}
}

func TestAnalyzeMessage_UnavailableVisionDegrades(t *testing.T) {
	fake := genai.NewFake()
	fake.SetAvailable(false)
	a := newAnalyzer(t, fake)

	msg := models.Message{Text: "screenshot attached", Images: []models.ImageRef{{Data: []byte{1}}}}
	got, err := a.AnalyzeMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("AnalyzeMessage must not fail on unavailable vision: %v", err)
	}
	if got.HasErrors {
		t.Error("no extracted errors expected")
	}
	if !strings.Contains(got.Summary, "analysis unavailable") {
		t.Errorf("Summary = %q", got.Summary)
	}
}
