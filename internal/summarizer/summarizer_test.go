package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ghdb "github.com/ghosthub/ghosthub/internal/db"
	"github.com/ghosthub/ghosthub/internal/fault"
	"github.com/ghosthub/ghosthub/internal/genai"
	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/ghosthub/ghosthub/internal/store"
)

func testStore(t *testing.T) *store.Store {
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
		t.Fatalf("new store: %v", err)
	}
	return s
}

func newSummarizer(t *testing.T, fake *genai.Fake) (*Summarizer, *store.Store) {
	t.Helper()
	s := testStore(t)
	sum, err := New(Opts{Capability: fake, Store: s})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sum, s
}

func sampleThread() models.Thread {
	return models.Thread{
		ThreadID: "slack-C01-1700000000",
		Platform: "slack",
		Messages: []models.Message{
			{Author: "ava", Text: "the export fails with a 500", Timestamp: time.UnixMilli(1700000000000)},
			{Author: "ben", Text: "same here, started after the deploy"},
			{Author: "ava", Text: "stack trace points at the csv writer"},
		},
	}
}

func TestFormatThread_OrderAndSeparators(t *testing.T) {
	got := FormatThread(sampleThread().Messages)
	blocks := strings.Split(got, "\n\n")
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(blocks))
	}
	if !strings.HasPrefix(blocks[0], "ava (") {
		t.Errorf("first block = %q, want author + timestamp prefix", blocks[0])
	}
	if blocks[1] != "ben: same here, started after the deploy" {
		t.Errorf("second block = %q", blocks[1])
	}
	if strings.Index(got, "export fails") > strings.Index(got, "csv writer") {
		t.Error("input order must be preserved")
	}
}

func TestSummarizeThread_Persists(t *testing.T) {
	fake := genai.NewFake()
	fake.RespondDefault("CSV export returns 500 after the latest deploy.")
	sum, s := newSummarizer(t, fake)

	rec, err := sum.SummarizeThread(context.Background(), sampleThread(), Options{})
	if err != nil {
		t.Fatalf("SummarizeThread: %v", err)
	}
	if rec.ID == 0 {
		t.Error("summary must be persisted with an id")
	}
	if rec.MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", rec.MessageCount)
	}
	if rec.SummaryLength != len(rec.Summary) {
		t.Errorf("SummaryLength = %d, len = %d", rec.SummaryLength, len(rec.Summary))
	}

	stored, err := s.GetSummary(rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	msgs, err := stored.Messages()
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != stored.MessageCount {
		t.Errorf("invariant broken: MessageCount %d != snapshot %d", stored.MessageCount, len(msgs))
	}
}

func TestSummarizeThread_EmptyThread(t *testing.T) {
	sum, _ := newSummarizer(t, genai.NewFake())
	_, err := sum.SummarizeThread(context.Background(), models.Thread{ThreadID: "t"}, Options{})
	if !errors.Is(err, fault.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSummarizeThread_Unavailable(t *testing.T) {
	fake := genai.NewFake()
	fake.SetAvailable(false)
	sum, s := newSummarizer(t, fake)

	_, err := sum.SummarizeThread(context.Background(), sampleThread(), Options{})
	if !errors.Is(err, fault.ErrCapabilityUnavailable) {
		t.Errorf("err = %v, want ErrCapabilityUnavailable", err)
	}
	recs, _ := s.QuerySummaries(nil)
	if len(recs) != 0 {
		t.Errorf("nothing may be persisted, got %d", len(recs))
	}
}

func TestSummarizeThread_LengthHintInPrompt(t *testing.T) {
	fake := genai.NewFake()
	fake.RespondDefault("short one.")
	sum, _ := newSummarizer(t, fake)

	if _, err := sum.SummarizeThread(context.Background(), sampleThread(), Options{Length: LengthShort}); err != nil {
		t.Fatal(err)
	}
	prompts := fake.Prompts()
	if len(prompts) != 1 || !strings.Contains(prompts[0], "at most two sentences") {
		t.Errorf("prompt missing short length hint: %q", prompts)
	}
}

func TestSummarizeStreaming_ChunksThenFullText(t *testing.T) {
	fake := genai.NewFake()
	fake.RespondDefault("a complete streamed summary")
	fake.SetStreaming(true)
	sum, _ := newSummarizer(t, fake)

	var calls []string
	out, err := sum.SummarizeStreaming(context.Background(), "long thread text", func(chunk string) {
		calls = append(calls, chunk)
	})
	if err != nil {
		t.Fatalf("SummarizeStreaming: %v", err)
	}
	if out != "a complete streamed summary" {
		t.Errorf("out = %q", out)
	}
	if len(calls) < 2 {
		t.Fatalf("expected partial chunks plus final call, got %d", len(calls))
	}
	if calls[len(calls)-1] != out {
		t.Errorf("final callback = %q, must carry the complete text", calls[len(calls)-1])
	}
}

func TestSummarizeStreaming_NoStreamingFiresOnce(t *testing.T) {
	fake := genai.NewFake()
	fake.RespondDefault("whole thing at once")
	sum, _ := newSummarizer(t, fake)

	var calls []string
	out, err := sum.SummarizeStreaming(context.Background(), "text", func(chunk string) {
		calls = append(calls, chunk)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Fatalf("callback fired %d times, want exactly once", len(calls))
	}
	if calls[0] != out {
		t.Errorf("single callback = %q, want full result %q", calls[0], out)
	}
}

func TestSummarizeStreaming_EmptyText(t *testing.T) {
	sum, _ := newSummarizer(t, genai.NewFake())
	_, err := sum.SummarizeStreaming(context.Background(), "  ", nil)
	if !errors.Is(err, fault.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCreateIssueDescription(t *testing.T) {
	summary := &models.Summary{
		Platform: "slack",
		Summary:  "CSV export returns 500 after the latest deploy.",
	}
	if err := summary.SetMessages([]models.SnapshotMessage{
		{Author: "ava", Text: "the export fails\nwith a 500", Timestamp: 1700000000000},
		{Author: "ben", Text: "same here"},
	}); err != nil {
		t.Fatal(err)
	}
	classification := &models.Classification{Category: models.CategoryBug}

	got := CreateIssueDescription(summary, classification)

	// Section order is part of the contract.
	iSummary := strings.Index(got, "## Summary")
	iDetails := strings.Index(got, "## Details")
	iOrig := strings.Index(got, "## Original Messages")
	if iSummary == -1 || iDetails == -1 || iOrig == -1 {
		t.Fatalf("missing section in:\n%s", got)
	}
	if !(iSummary < iDetails && iDetails < iOrig) {
		t.Errorf("section order wrong in:\n%s", got)
	}
	if !strings.Contains(got, "- **Type**: bug") {
		t.Errorf("missing type detail in:\n%s", got)
	}
	if !strings.Contains(got, "- **Messages**: 2") {
		t.Errorf("missing message count in:\n%s", got)
	}
	if !strings.Contains(got, "**ava** (2023-11-14 22:13 UTC):") {
		t.Errorf("missing author/time line in:\n%s", got)
	}
	if !strings.Contains(got, "> the export fails\n> with a 500") {
		t.Errorf("multi-line message must be fully quoted:\n%s", got)
	}

	// Deterministic.
	if again := CreateIssueDescription(summary, classification); again != got {
		t.Error("description must be deterministic")
	}
}
