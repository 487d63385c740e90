package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ghosthub/ghosthub/internal/analyzer"
	"github.com/ghosthub/ghosthub/internal/classifier"
	ghdb "github.com/ghosthub/ghosthub/internal/db"
	"github.com/ghosthub/ghosthub/internal/fault"
	"github.com/ghosthub/ghosthub/internal/genai"
	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/ghosthub/ghosthub/internal/store"
	"github.com/ghosthub/ghosthub/internal/summarizer"
	"github.com/ghosthub/ghosthub/internal/vision"
)

type fakePublisher struct {
	url    string
	err    error
	calls  int
	drafts []*models.IssueDraft
}

func (p *fakePublisher) Publish(ctx context.Context, draft *models.IssueDraft) (string, error) {
	p.calls++
	p.drafts = append(p.drafts, draft)
	if p.err != nil {
		return "", p.err
	}
	return p.url, nil
}

func testPipeline(t *testing.T, fake *genai.Fake, pub Publisher) (*Orchestrator, *store.Store) {
	t.Helper()
	db, err := ghdb.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := ghdb.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s, err := store.New(db)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	cls, err := classifier.New(classifier.Opts{Capability: fake, Store: s})
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	sum, err := summarizer.New(summarizer.Opts{Capability: fake, Store: s})
	if err != nil {
		t.Fatalf("summarizer: %v", err)
	}
	vis, err := vision.New(vision.Opts{Capability: fake})
	if err != nil {
		t.Fatalf("vision: %v", err)
	}
	ana, err := analyzer.New(analyzer.Opts{Vision: vis})
	if err != nil {
		t.Fatalf("analyzer: %v", err)
	}
	o, err := New(Opts{Classifier: cls, Summarizer: sum, Analyzer: ana, Store: s, Publisher: pub})
	if err != nil {
		t.Fatalf("workflow: %v", err)
	}
	return o, s
}

func bugThread() models.Thread {
	return models.Thread{
		ThreadID: "slack-C01-42",
		Platform: "slack",
		Messages: []models.Message{
			{Author: "ava", Text: "the export button crashes on save", Platform: "slack"},
			{Author: "ben", Text: "confirmed, 500 in the logs", Platform: "slack"},
		},
	}
}

// scriptActionable wires the fake so classification says bug and
// summarization returns a fixed narrative.
func scriptActionable(fake *genai.Fake) {
	fake.Respond("developer-intent classifier", "category: bug, confidence: high")
	fake.Respond("Summarize the following chat conversation", "Export crashes with a 500 on save. Affects all users.")
}

func TestProcessThread_ActionablePath(t *testing.T) {
	fake := genai.NewFake()
	scriptActionable(fake)
	o, s := testPipeline(t, fake, nil)

	res, err := o.ProcessThread(context.Background(), bugThread())
	if err != nil {
		t.Fatalf("ProcessThread: %v", err)
	}
	if !res.Actionable {
		t.Fatal("expected actionable result")
	}
	if res.Classification == nil || res.Classification.Category != models.CategoryBug {
		t.Fatalf("classification = %+v", res.Classification)
	}
	if res.Summary == nil || res.Summary.ID == 0 {
		t.Fatal("summary must be persisted")
	}
	if res.Draft == nil || res.Draft.ID == 0 {
		t.Fatal("draft must be persisted")
	}
	if res.Draft.Status != models.StatusDraft {
		t.Errorf("Status = %s, want draft", res.Draft.Status)
	}
	if !strings.HasPrefix(res.Draft.Title, "🐛 ") {
		t.Errorf("Title = %q", res.Draft.Title)
	}
	if res.Draft.ClassificationID != res.Classification.ID || res.Draft.SummaryID != res.Summary.ID {
		t.Error("draft must soft-reference its classification and summary")
	}
	if res.Draft.MessageCount != 2 {
		t.Errorf("MessageCount = %d", res.Draft.MessageCount)
	}

	labels, err := res.Draft.LabelSet()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"bug": true, "ghosthub": true, "slack": true}
	if len(labels) != 3 {
		t.Fatalf("labels = %v", labels)
	}
	for _, l := range labels {
		if !want[l] {
			t.Errorf("unexpected label %q", l)
		}
	}

	// Description carries the contract sections.
	if !strings.Contains(res.Draft.Description, "## Summary") ||
		!strings.Contains(res.Draft.Description, "## Original Messages") {
		t.Errorf("description = %q", res.Draft.Description)
	}

	stored, err := s.GetDraft(res.Draft.ID)
	if err != nil {
		t.Fatalf("stored draft: %v", err)
	}
	msgs, err := stored.Messages()
	if err != nil || len(msgs) != 2 {
		t.Errorf("snapshot = %v, %v", msgs, err)
	}
}

func TestProcessThread_NotActionableGate(t *testing.T) {
	fake := genai.NewFake()
	fake.Respond("developer-intent classifier", "category: other, confidence: high")
	o, s := testPipeline(t, fake, nil)

	res, err := o.ProcessThread(context.Background(), bugThread())
	if err != nil {
		t.Fatalf("ProcessThread: %v", err)
	}
	if res.Actionable {
		t.Fatal("other must not be actionable")
	}
	if res.Summary != nil || res.Draft != nil {
		t.Error("no summary or draft may be produced")
	}

	sums, _ := s.QuerySummaries(nil)
	drafts, _ := s.QueryDrafts(nil)
	if len(sums) != 0 || len(drafts) != 0 {
		t.Errorf("collections gained records: %d summaries, %d drafts", len(sums), len(drafts))
	}
}

func TestProcessThread_ClassifiesOnlyFirstMessage(t *testing.T) {
	fake := genai.NewFake()
	scriptActionable(fake)
	o, _ := testPipeline(t, fake, nil)

	if _, err := o.ProcessThread(context.Background(), bugThread()); err != nil {
		t.Fatal(err)
	}
	var classifyCalls int
	for _, p := range fake.Prompts() {
		if strings.Contains(p, "developer-intent classifier") {
			classifyCalls++
			if !strings.Contains(p, "the export button crashes on save") {
				t.Errorf("classified a non-lead message: %q", p)
			}
		}
	}
	if classifyCalls != 1 {
		t.Errorf("classify calls = %d, want 1 (lead message only)", classifyCalls)
	}
}

func TestProcessThread_EmptyThread(t *testing.T) {
	o, _ := testPipeline(t, genai.NewFake(), nil)
	_, err := o.ProcessThread(context.Background(), models.Thread{ThreadID: "x"})
	if !errors.Is(err, fault.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestProcessThread_ImageEvidenceInDescription(t *testing.T) {
	fake := genai.NewFake()
	scriptActionable(fake)
	fake.Respond("Analyze this screenshot", "ERROR: TypeError at app.js:1\nTEXT: console\nCONTEXT: crash screenshot")
	o, _ := testPipeline(t, fake, nil)

	th := bugThread()
	th.Messages[0].Images = []models.ImageRef{{Data: []byte{1}}}
	res, err := o.ProcessThread(context.Background(), th)
	if err != nil {
		t.Fatalf("ProcessThread: %v", err)
	}
	if !strings.Contains(res.Draft.Description, "## Image Analysis") {
		t.Errorf("description missing image section:\n%s", res.Draft.Description)
	}
	if !strings.Contains(res.Draft.Description, "TypeError at app.js:1") {
		t.Errorf("description missing extracted error:\n%s", res.Draft.Description)
	}
}

func TestProcessThreads_BatchIsolation(t *testing.T) {
	fake := genai.NewFake()
	scriptActionable(fake)
	o, _ := testPipeline(t, fake, nil)

	threads := []models.Thread{
		bugThread(),
		{ThreadID: "empty-thread", Platform: "slack"}, // fails validation
		{ThreadID: "discord-1", Platform: "discord", Messages: []models.Message{
			{Author: "cam", Text: "found an error in checkout", Platform: "discord"},
		}},
	}
	outcomes := o.ProcessThreads(context.Background(), threads)
	if len(outcomes) != 3 {
		t.Fatalf("len = %d, want one outcome per thread", len(outcomes))
	}
	if outcomes[0].Err != nil {
		t.Errorf("outcomes[0].Err = %v", outcomes[0].Err)
	}
	if outcomes[1].Err == nil {
		t.Error("outcomes[1] must fail")
	}
	if outcomes[1].ThreadID != "empty-thread" {
		t.Errorf("outcomes[1].ThreadID = %q", outcomes[1].ThreadID)
	}
	if outcomes[2].Err != nil {
		t.Errorf("outcomes[2].Err = %v (batch must not abort)", outcomes[2].Err)
	}
}

func TestProcessThread_UnavailableCapability(t *testing.T) {
	fake := genai.NewFake()
	fake.SetAvailable(false)
	o, _ := testPipeline(t, fake, nil)

	_, err := o.ProcessThread(context.Background(), bugThread())
	if !errors.Is(err, fault.ErrCapabilityUnavailable) {
		t.Errorf("err = %v, want ErrCapabilityUnavailable", err)
	}
}

func TestApproveAndPublish(t *testing.T) {
	fake := genai.NewFake()
	scriptActionable(fake)
	pub := &fakePublisher{url: "https://github.com/acme/widgets/issues/7"}
	o, s := testPipeline(t, fake, pub)

	res, err := o.ProcessThread(context.Background(), bugThread())
	if err != nil {
		t.Fatal(err)
	}

	updated, url, err := o.ApproveAndPublish(context.Background(), res.Draft.ID)
	if err != nil {
		t.Fatalf("ApproveAndPublish: %v", err)
	}
	if url != pub.url {
		t.Errorf("url = %q", url)
	}
	if updated.Status != models.StatusApproved {
		t.Errorf("Status = %s", updated.Status)
	}
	stored, _ := s.GetDraft(res.Draft.ID)
	if stored.Status != models.StatusApproved || stored.IssueURL != pub.url {
		t.Errorf("stored = %+v", stored)
	}

	// Terminal: a second publish attempt must fail, sink not called again.
	if _, _, err := o.ApproveAndPublish(context.Background(), res.Draft.ID); !errors.Is(err, fault.ErrInvalidTransition) {
		t.Errorf("second publish = %v, want ErrInvalidTransition", err)
	}
	if pub.calls != 1 {
		t.Errorf("publisher calls = %d, want 1", pub.calls)
	}
}

func TestApproveAndPublish_SinkErrorLeavesDraft(t *testing.T) {
	fake := genai.NewFake()
	scriptActionable(fake)
	sinkErr := errors.New("github: 422 validation failed")
	pub := &fakePublisher{err: sinkErr}
	o, s := testPipeline(t, fake, pub)

	res, err := o.ProcessThread(context.Background(), bugThread())
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = o.ApproveAndPublish(context.Background(), res.Draft.ID)
	if !errors.Is(err, sinkErr) {
		t.Errorf("sink error must surface unchanged, got %v", err)
	}
	stored, _ := s.GetDraft(res.Draft.ID)
	if stored.Status != models.StatusDraft {
		t.Errorf("draft must remain pending after a failed publish, got %s", stored.Status)
	}
}

func TestReject(t *testing.T) {
	fake := genai.NewFake()
	scriptActionable(fake)
	o, s := testPipeline(t, fake, nil)

	res, err := o.ProcessThread(context.Background(), bugThread())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Reject(res.Draft.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	stored, _ := s.GetDraft(res.Draft.ID)
	if stored.Status != models.StatusRejected {
		t.Errorf("Status = %s", stored.Status)
	}
}
